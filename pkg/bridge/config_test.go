package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uart.go/pkg/bridge/mqtt"
	"github.com/robotalks/uart.go/pkg/bridge/stream"
	"github.com/robotalks/uart.go/pkg/bridge/websocket"
	"github.com/robotalks/uart.go/pkg/env"
)

func newSimEnv(t *testing.T) *env.Env {
	ec := env.NewConfig()
	ec.Port, ec.Channels, ec.Wiring = env.PortSim, 2, ""
	e, err := ec.NewEnv()
	require.NoError(t, err)
	return e
}

func TestConfigNewBridge(t *testing.T) {
	c := NewConfig()
	c.Peer, c.MQTTBrokerURL, c.WebsocketListen = "battery", "mqtt://localhost:1883/uart/", "127.0.0.1:0"
	c.Stdio = true
	b, err := c.NewBridge(newSimEnv(t))
	require.NoError(t, err)
	require.Equal(t, "battery", b.Peer)
	require.Len(t, b.Upstreams, 3)
	up, ok := b.Upstreams[0].(*mqtt.Upstream)
	require.True(t, ok)
	require.Equal(t, uint8(1), up.Meta.Channel)
	require.True(t, up.Meta.Transformed)
	require.NotEmpty(t, up.Meta.Host)
	require.IsType(t, &websocket.Hub{}, b.Upstreams[1])
	require.IsType(t, &stream.ReadWriter{}, b.Upstreams[2])
}

func TestConfigNewBridgeErrors(t *testing.T) {
	c := NewConfig()
	c.Peer, c.MQTTBrokerURL, c.WebsocketListen, c.Stdio = "gateway", "", "", false
	_, err := c.NewBridge(newSimEnv(t))
	require.Error(t, err)

	c.Peer, c.WebsocketListen = "nobody", ":8080"
	_, err = c.NewBridge(newSimEnv(t))
	require.Error(t, err)
}
