package mqtt

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientID(t *testing.T) {
	require.Equal(t, "uart:battery", ClientID(Meta{Peer: "battery"}))
	id := ClientID(Meta{Peer: "gateway", Host: "0123456789abcdef0123"})
	require.Equal(t, "uart:gateway:0123456789", id)
	require.Len(t, id, maxClientIDLen)
}

func TestUpstreamTopics(t *testing.T) {
	u, err := NewUpstream("mqtt://localhost:1883/uart/", Meta{Peer: "battery", Channel: 1, Transformed: true})
	require.NoError(t, err)
	require.Equal(t, "uart/", u.Queue.TopicPrefix)
	require.Equal(t, "battery/tx", u.topic("tx"))
	require.JSONEq(t, `{"peer":"battery","channel":1,"transformed":true}`, string(u.metaJSON))
}

func TestUpstreamReadPacket(t *testing.T) {
	u, err := NewUpstream("mqtt://localhost:1883/", Meta{Peer: "gateway"})
	require.NoError(t, err)
	go u.handleMsg("gateway/tx", []byte("hi"))
	pkt, err := u.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), pkt)

	close(u.done)
	u.handleMsg("gateway/tx", []byte("late"))
	u.handleMsg("gateway/tx", []byte("later"))
	// a buffered packet may still be returned before EOF.
	for {
		if _, err = u.ReadPacket(); err != nil {
			break
		}
	}
	require.Equal(t, io.EOF, err)
}
