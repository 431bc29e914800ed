package bridge

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/uart.go/pkg/bridge/mqtt"
	"github.com/robotalks/uart.go/pkg/bridge/stream"
	"github.com/robotalks/uart.go/pkg/bridge/websocket"
	"github.com/robotalks/uart.go/pkg/env"
)

// Config provides options to setup a Bridge.
type Config struct {
	// Peer is the name of the bridged peer.
	Peer string
	// MQTTBrokerURL specifies the MQTT broker, empty to disable.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketListen is the address of the websocket hub, empty to disable.
	WebsocketListen string
	// Stdio exchanges length-prefixed packets over stdin/stdout.
	Stdio bool
}

var defaultConfig = Config{
	Peer:          "gateway",
	MQTTBrokerURL: "mqtt://localhost:1883/uart/",
}

func init() {
	if val := os.Getenv("UART_BRIDGE_PEER"); val != "" {
		defaultConfig.Peer = val
	}
	if val, ok := os.LookupEnv("UART_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("UART_WS_LISTEN"); val != "" {
		defaultConfig.WebsocketListen = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Peer, "peer", defaultConfig.Peer, "Peer to bridge.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.WebsocketListen, "ws", defaultConfig.WebsocketListen, "Websocket listen address, empty to disable.")
	flag.BoolVar(&defaultConfig.Stdio, "stdio", defaultConfig.Stdio, "Exchange packets over stdin/stdout.")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewBridge creates a Bridge of the peer in e with configured upstreams.
func (c *Config) NewBridge(e *env.Env) (*Bridge, error) {
	ep, err := e.Endpoint(c.Peer)
	if err != nil {
		return nil, err
	}
	b := New(c.Peer, ep)
	if c.MQTTBrokerURL != "" {
		up, err := mqtt.NewUpstream(c.MQTTBrokerURL, mqtt.Meta{
			Peer:        c.Peer,
			Channel:     uint8(ep.Config.Channel()),
			Transformed: ep.Config.HasTransform(),
			Host:        env.MachineID(),
		})
		if err != nil {
			return nil, fmt.Errorf("create MQTT upstream error: %w", err)
		}
		b.Upstreams = append(b.Upstreams, up)
	}
	if c.WebsocketListen != "" {
		b.Upstreams = append(b.Upstreams, websocket.NewHub(c.WebsocketListen))
	}
	if c.Stdio {
		b.Upstreams = append(b.Upstreams, stream.New(os.Stdin, os.Stdout))
	}
	if len(b.Upstreams) == 0 {
		return nil, fmt.Errorf("at least one upstream is required")
	}
	return b, nil
}

// MustNewBridge creates Bridge and fails on error.
func (c *Config) MustNewBridge(e *env.Env) *Bridge {
	b, err := c.NewBridge(e)
	if err != nil {
		log.Fatalln(err)
	}
	return b
}
