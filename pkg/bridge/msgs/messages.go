// Package msgs defines the envelope published for received packets.
package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
	"github.com/sigurn/crc16"

	"github.com/robotalks/uart.go/pkg/uart"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// ErrChecksum indicates the payload doesn't match the checksum.
var ErrChecksum = errors.New("payload checksum mismatch")

// Checksum computes the CRC-16/MODBUS of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// PacketEvent reports one packet received from a peer.
type PacketEvent struct {
	Peer    string `protobuf:"bytes,1,opt,name=peer,proto3" json:"peer,omitempty"`
	Channel uint32 `protobuf:"varint,2,opt,name=channel,proto3" json:"channel,omitempty"`
	// Length is the declared packet length, larger than the payload
	// when the packet was truncated.
	Length uint32 `protobuf:"varint,3,opt,name=length,proto3" json:"length,omitempty"`
	// Errors holds port.ErrorFlags.
	Errors  uint32 `protobuf:"varint,4,opt,name=errors,proto3" json:"errors,omitempty"`
	Payload []byte `protobuf:"bytes,5,opt,name=payload,proto3" json:"payload,omitempty"`
	Crc16   uint32 `protobuf:"varint,6,opt,name=crc16,proto3" json:"crc16,omitempty"`
}

// NewPacketEvent creates a PacketEvent from a received packet.
func NewPacketEvent(peer string, ch port.Channel, pkt *uart.Packet) *PacketEvent {
	return &PacketEvent{
		Peer:    peer,
		Channel: uint32(ch),
		Length:  pkt.Length,
		Errors:  uint32(pkt.Errors),
		Payload: pkt.Data,
		Crc16:   uint32(Checksum(pkt.Data)),
	}
}

// ProtoMessage implements proto.Message.
func (m *PacketEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PacketEvent) Reset() { *m = PacketEvent{} }

// String implements proto.Message.
func (m *PacketEvent) String() string { return proto.CompactTextString(m) }

// LineErrors returns the line errors as flags.
func (m *PacketEvent) LineErrors() port.ErrorFlags { return port.ErrorFlags(m.Errors) }

// Truncated reports whether the payload is shorter than the packet.
func (m *PacketEvent) Truncated() bool { return uint64(m.Length) > uint64(len(m.Payload)) }

// Verify checks the payload against the checksum.
func (m *PacketEvent) Verify() error {
	if sum := uint32(Checksum(m.Payload)); sum != m.Crc16 {
		return fmt.Errorf("%w: %04x, expect %04x", ErrChecksum, sum, m.Crc16)
	}
	return nil
}

// Encode encodes the event to bytes.
func (m *PacketEvent) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodePacketEvent decodes and verifies an event.
func DecodePacketEvent(data []byte) (*PacketEvent, error) {
	var m PacketEvent
	if err := proto.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, m.Verify()
}
