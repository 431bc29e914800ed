package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

func TestChecksum(t *testing.T) {
	require.Equal(t, uint16(0x4b37), Checksum([]byte("123456789")))
	require.Equal(t, uint16(0xffff), Checksum(nil))
}

func TestPacketEvent(t *testing.T) {
	pkt := &uart.Packet{Data: []byte("hello"), Length: 8, Errors: port.ErrParity}
	evt := NewPacketEvent("battery", port.UART1, pkt)
	require.Equal(t, "battery", evt.Peer)
	require.Equal(t, uint32(1), evt.Channel)
	require.True(t, evt.Truncated())
	require.True(t, evt.LineErrors().Has(port.ErrParity))
	require.NoError(t, evt.Verify())

	data, err := evt.Encode()
	require.NoError(t, err)
	decoded, err := DecodePacketEvent(data)
	require.NoError(t, err)
	require.Equal(t, evt.Payload, decoded.Payload)
	require.Equal(t, evt.Crc16, decoded.Crc16)
	require.Equal(t, evt.Length, decoded.Length)
}

func TestPacketEventCorrupted(t *testing.T) {
	evt := NewPacketEvent("gateway", port.UART2, &uart.Packet{Data: []byte{1, 2, 3}, Length: 3})
	evt.Payload[1] = 0xff
	data, err := evt.Encode()
	require.NoError(t, err)
	_, err = DecodePacketEvent(data)
	require.True(t, errors.Is(err, ErrChecksum))

	_, err = DecodePacketEvent([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}
