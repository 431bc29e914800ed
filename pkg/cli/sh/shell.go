// Package sh provides an interactive shell to exercise UART peers.
package sh

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	random "github.com/mazen160/go-random"

	"github.com/robotalks/uart.go/pkg/env"
	"github.com/robotalks/uart.go/pkg/peers"
	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Env   *env.Env

	endpoints map[string]*uart.Endpoint
}

const (
	shellKey = "$shell"
	prompt   = "uart > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&PeersCmd,
		&InitCmd,
		&SendCmd,
		&RecvCmd,
		&SoakCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(e *env.Env) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Env:         e,
		endpoints:   make(map[string]*uart.Endpoint),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Endpoint gets the endpoint of a peer, the channel is initialized
// on first use.
func (s *Shell) Endpoint(peer string) (*uart.Endpoint, error) {
	if ep := s.endpoints[peer]; ep != nil {
		return ep, nil
	}
	ep, err := s.Env.Endpoint(peer)
	if err != nil {
		return nil, err
	}
	s.endpoints[peer] = ep
	return ep, nil
}

// Print prints v as JSON or text.
func (s *Shell) Print(c *ishell.Context, v fmt.Stringer) {
	if !s.OutputJSON {
		c.Println(v.String())
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// PeerInfo describes a configured peer.
type PeerInfo struct {
	Name        string `json:"name"`
	Channel     string `json:"channel"`
	Transformed bool   `json:"transformed"`
	Initialized bool   `json:"initialized"`
}

func (p PeerInfo) String() string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s: %s", p.Name, p.Channel)
	if p.Transformed {
		w.WriteString(" (transformed)")
	}
	if p.Initialized {
		w.WriteString(" *")
	}
	return w.String()
}

// PeerList is printed by the peers command.
type PeerList []PeerInfo

func (l PeerList) String() string {
	lines := make([]string, len(l))
	for n, p := range l {
		lines[n] = p.String()
	}
	return strings.Join(lines, "\n")
}

// ListPeers lists configured peers.
func (s *Shell) ListPeers() PeerList {
	var list PeerList
	for _, name := range peers.Names() {
		conf, _ := peers.Lookup(name)
		list = append(list, PeerInfo{
			Name:        name,
			Channel:     conf.Channel().String(),
			Transformed: conf.HasTransform(),
			Initialized: s.endpoints[name] != nil,
		})
	}
	return list
}

// PacketOutput is a received packet for display.
type PacketOutput struct {
	Peer      string `json:"peer"`
	Length    uint32 `json:"length"`
	Errors    string `json:"errors"`
	Truncated bool   `json:"truncated,omitempty"`
	Data      string `json:"data"`
}

// NewPacketOutput creates PacketOutput.
func NewPacketOutput(peer string, pkt *uart.Packet) *PacketOutput {
	return &PacketOutput{
		Peer:      peer,
		Length:    pkt.Length,
		Errors:    pkt.Errors.String(),
		Truncated: pkt.Truncated(),
		Data:      hex.EncodeToString(pkt.Data),
	}
}

func (p *PacketOutput) String() string {
	s := fmt.Sprintf("%s: %d bytes, errors: %s, data: %s", p.Peer, p.Length, p.Errors, p.Data)
	if p.Truncated {
		s += " (truncated)"
	}
	return s
}

// ParsePayload joins args as text, or decodes them as hex.
func ParsePayload(args []string, isHex bool) ([]byte, error) {
	text := strings.Join(args, " ")
	if !isHex {
		return []byte(text), nil
	}
	return hex.DecodeString(strings.Join(strings.Fields(text), ""))
}

// SoakResult summarizes a soak run.
type SoakResult struct {
	Peer       string `json:"peer"`
	Packets    int    `json:"packets"`
	Mismatches int    `json:"mismatches"`
	LineErrors int    `json:"line_errors"`
}

func (r *SoakResult) String() string {
	return fmt.Sprintf("%s: %d packets, %d mismatches, %d with line errors",
		r.Peer, r.Packets, r.Mismatches, r.LineErrors)
}

// Soak sends count random packets of size bytes and expects each to be
// received back on the same endpoint. It requires the channel to be
// looped back.
func Soak(peer string, ep *uart.Endpoint, count, size int) (*SoakResult, error) {
	if count <= 0 || size < 0 {
		return nil, fmt.Errorf("invalid soak of %d packets of %d bytes", count, size)
	}
	res := &SoakResult{Peer: peer}
	for ; res.Packets < count; res.Packets++ {
		payload, err := soakPayload(size)
		if err != nil {
			return res, err
		}
		ep.Send(payload)
		pkt := ep.Recv()
		if pkt.Errors != 0 {
			res.LineErrors++
		}
		if !bytes.Equal(pkt.Data, payload) || pkt.Truncated() {
			res.Mismatches++
		}
	}
	return res, nil
}

// soakPayload returns size random bytes. Every other byte has the high bit
// flipped so a shift transform wraps past 0xFF.
func soakPayload(size int) ([]byte, error) {
	str, err := random.String(size)
	if err != nil {
		return nil, err
	}
	payload := []byte(str)
	for i := 1; i < len(payload); i += 2 {
		payload[i] ^= 0x80
	}
	return payload, nil
}

func requireArgs(c *ishell.Context, n int) bool {
	if len(c.Args) < n {
		c.Err(fmt.Errorf("expect at least %d arguments", n))
		return false
	}
	return true
}

// withEndpoint resolves the peer in the first argument.
// A device failing during fn is reported as the command's error.
func withEndpoint(n int, fn func(c *ishell.Context, s *Shell, ep *uart.Endpoint)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !requireArgs(c, n) {
			return
		}
		s := ShellFrom(c)
		ep, err := s.Endpoint(c.Args[0])
		if err != nil {
			c.Err(err)
			return
		}
		if err = runEndpoint(func() { fn(c, s, ep) }); err != nil {
			c.Err(err)
		}
	}
}

func runEndpoint(fn func()) (err error) {
	defer port.RecoverIOError(&err)
	fn()
	return nil
}

var (
	// PeersCmd lists peers.
	PeersCmd = ishell.Cmd{
		Name:    "peers",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Print(c, s.ListPeers())
		},
	}

	// InitCmd initializes channels of peers.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "PEER...",
		Func: func(c *ishell.Context) {
			if !requireArgs(c, 1) {
				return
			}
			s := ShellFrom(c)
			for _, peer := range c.Args {
				if _, err := s.Endpoint(peer); err != nil {
					c.Err(err)
					return
				}
			}
			c.Println("OK")
		},
	}

	// SendCmd sends a packet.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "PEER [-x] TEXT|HEX",
		Func: withEndpoint(2, func(c *ishell.Context, s *Shell, ep *uart.Endpoint) {
			args, isHex := c.Args[1:], false
			if args[0] == "-x" {
				args, isHex = args[1:], true
			}
			payload, err := ParsePayload(args, isHex)
			if err != nil {
				c.Err(err)
				return
			}
			ep.Send(payload)
			c.Printf("sent %d bytes\n", len(payload))
		}),
	}

	// RecvCmd blocks until a packet is received.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "PEER",
		Func: withEndpoint(1, func(c *ishell.Context, s *Shell, ep *uart.Endpoint) {
			s.Print(c, NewPacketOutput(c.Args[0], ep.Recv()))
		}),
	}

	// SoakCmd runs a loopback soak test with random payloads.
	SoakCmd = ishell.Cmd{
		Name: "soak",
		Help: "PEER [COUNT [SIZE]]",
		Func: withEndpoint(1, func(c *ishell.Context, s *Shell, ep *uart.Endpoint) {
			count, size := 100, 32
			var err error
			if len(c.Args) > 1 {
				if count, err = strconv.Atoi(c.Args[1]); err != nil {
					c.Err(err)
					return
				}
			}
			if len(c.Args) > 2 {
				if size, err = strconv.Atoi(c.Args[2]); err != nil {
					c.Err(err)
					return
				}
			}
			res, err := Soak(c.Args[0], ep, count, size)
			if err != nil {
				c.Err(err)
				return
			}
			s.Print(c, res)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	env.SetupFlags()
	flag.Parse()
	New(env.NewConfig().MustNewEnv()).Run(flag.Args()...)
}
