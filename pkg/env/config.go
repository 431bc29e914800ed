package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/robotalks/uart.go/pkg/peers"
	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/hw/sim"
	"github.com/robotalks/uart.go/pkg/uart/port"
	"github.com/robotalks/uart.go/pkg/uart/port/pic32"
	"github.com/robotalks/uart.go/pkg/uart/port/tty"
)

// Port kinds.
const (
	PortSim = "sim"
	PortTTY = "tty"
)

// Config provides common options to setup the UART stack.
type Config struct {
	// Port selects the port driver, PortSim or PortTTY.
	Port string
	// Devices lists serial devices for PortTTY, comma separated,
	// the first one backs UART1.
	Devices string
	// Channels is the number of simulated channels.
	Channels int
	// Wiring cross-wires simulated channels, e.g. "1:2,3:4".
	// Unwired channels loop back to themselves.
	Wiring string
	// PeripheralClock is the simulated peripheral clock in Hz.
	PeripheralClock uint
	// Baud is the baud rate used to initialize channels.
	Baud uint
	// MaxPacket is the receive buffer size of endpoints.
	MaxPacket int
}

var defaultConfig = Config{
	Port:            PortSim,
	Channels:        2,
	PeripheralClock: uint(pic32.DefaultPeripheralClock),
	Baud:            9600,
	MaxPacket:       uart.DefaultMaxPacket,
}

func init() {
	if val := os.Getenv("UART_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("UART_DEVICES"); val != "" {
		defaultConfig.Devices = val
	}
	if val, err := strconv.ParseUint(os.Getenv("UART_BAUD"), 10, 32); err == nil {
		defaultConfig.Baud = uint(val)
	}
	if val, err := strconv.ParseUint(os.Getenv("UART_CLOCK"), 10, 32); err == nil {
		defaultConfig.PeripheralClock = uint(val)
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Port driver: sim or tty.")
	flag.StringVar(&defaultConfig.Devices, "devices", defaultConfig.Devices, "Serial devices for tty port, comma separated, first is UART1.")
	flag.IntVar(&defaultConfig.Channels, "channels", defaultConfig.Channels, "Number of simulated channels.")
	flag.StringVar(&defaultConfig.Wiring, "wiring", defaultConfig.Wiring, "Cross-wired simulated channels, e.g. 1:2.")
	flag.UintVar(&defaultConfig.PeripheralClock, "clock", defaultConfig.PeripheralClock, "Simulated peripheral clock in Hz.")
	flag.UintVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate.")
	flag.IntVar(&defaultConfig.MaxPacket, "max-packet", defaultConfig.MaxPacket, "Receive buffer size.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the constructed UART stack.
type Env struct {
	Config *Config
	Port   port.Port
	Link   *uart.Link
	// Board is set for PortSim.
	Board *sim.Board
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if c.Baud == 0 {
		return nil, fmt.Errorf("baud rate must be specified")
	}
	if uint64(c.Baud) > math.MaxUint32 {
		return nil, fmt.Errorf("baud rate out of range: %d", c.Baud)
	}
	if uint64(c.PeripheralClock) > math.MaxUint32 {
		return nil, fmt.Errorf("peripheral clock out of range: %d", c.PeripheralClock)
	}
	env := &Env{Config: c}
	switch c.Port {
	case PortSim:
		if c.Channels < 1 || c.Channels > int(port.MaxChannel) {
			return nil, fmt.Errorf("invalid number of channels: %d", c.Channels)
		}
		env.Board = sim.NewBoard(c.Channels)
		pairs, err := ParseWiring(c.Wiring, c.Channels)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			env.Board.Connect(pair[0], pair[1])
		}
		env.Port = pic32.New(env.Board.Bank(), uint32(c.PeripheralClock))
	case PortTTY:
		var devices []string
		for _, dev := range strings.Split(c.Devices, ",") {
			if dev = strings.TrimSpace(dev); dev != "" {
				devices = append(devices, dev)
			}
		}
		if len(devices) == 0 || len(devices) > int(port.MaxChannel) {
			return nil, fmt.Errorf("tty port requires 1..%d devices", port.MaxChannel)
		}
		env.Port = tty.New(devices...)
	default:
		return nil, fmt.Errorf("unknown port: %q", c.Port)
	}
	env.Link = uart.NewLink(env.Port)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// ParseWiring parses "a:b" channel pairs separated by commas.
func ParseWiring(wiring string, channels int) ([][2]port.Channel, error) {
	var pairs [][2]port.Channel
	used := make(map[port.Channel]bool)
	for _, item := range strings.Split(wiring, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		tokens := strings.Split(item, ":")
		if len(tokens) != 2 {
			return nil, fmt.Errorf("invalid wiring %q", item)
		}
		var pair [2]port.Channel
		for n, token := range tokens {
			val, err := strconv.ParseUint(strings.TrimSpace(token), 10, 8)
			if err != nil || val < 1 || int(val) > channels {
				return nil, fmt.Errorf("invalid channel %q in wiring %q", token, item)
			}
			pair[n] = port.Channel(val)
		}
		if pair[0] == pair[1] || used[pair[0]] || used[pair[1]] {
			return nil, fmt.Errorf("channel wired twice in %q", item)
		}
		used[pair[0]], used[pair[1]] = true, true
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// Endpoint creates an Endpoint for a named peer and initializes its channel.
// A device failing to open is returned as *port.IOError.
func (e *Env) Endpoint(peer string) (_ *uart.Endpoint, err error) {
	defer port.RecoverIOError(&err)
	conf, ok := peers.Lookup(peer)
	if !ok {
		return nil, fmt.Errorf("unknown peer %q, expect one of %s", peer, strings.Join(peers.Names(), ", "))
	}
	if ch := conf.Channel(); int(ch) > e.Channels() {
		return nil, fmt.Errorf("peer %q uses %s, only %d channels available", peer, ch, e.Channels())
	}
	ep := uart.NewEndpoint(e.Link, conf)
	if e.Config.MaxPacket > 0 {
		ep.MaxPacket = e.Config.MaxPacket
	}
	ep.Init(uint32(e.Config.Baud))
	return ep, nil
}

// Channels returns the number of channels of the port.
func (e *Env) Channels() int {
	if c, ok := e.Port.(interface{ Channels() int }); ok {
		return c.Channels()
	}
	return int(port.MaxChannel)
}

// Close releases the port.
func (e *Env) Close() error {
	if closer, ok := e.Port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
