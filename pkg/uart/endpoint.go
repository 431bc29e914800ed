package uart

import (
	"fmt"

	"github.com/robotalks/uart.go/pkg/uart/port"
)

// DefaultMaxPacket is the default receive buffer size of an Endpoint.
const DefaultMaxPacket = 1024

// Packet is a received packet.
type Packet struct {
	// Data holds the stored bytes, at most the buffer size.
	Data []byte
	// Length is the packet length declared by the sender.
	Length uint32
	// Errors accumulates line errors of the whole packet.
	Errors port.ErrorFlags
}

// Truncated reports whether Data holds fewer bytes than declared.
func (p *Packet) Truncated() bool {
	return uint64(p.Length) > uint64(len(p.Data))
}

// LineError reports parity/framing errors seen while receiving a packet.
type LineError struct {
	Flags port.ErrorFlags
}

// Error implements error.
func (e *LineError) Error() string {
	return fmt.Sprintf("line errors: %s", e.Flags)
}

// TruncatedError reports a packet larger than the receive buffer.
// Flags carries line errors seen while receiving the same packet.
type TruncatedError struct {
	Length   uint32
	Capacity int
	Flags    port.ErrorFlags
}

// Error implements error.
func (e *TruncatedError) Error() string {
	msg := fmt.Sprintf("packet of %d bytes truncated to %d", e.Length, e.Capacity)
	if e.Flags != 0 {
		msg += fmt.Sprintf(", line errors: %s", e.Flags)
	}
	return msg
}

// Endpoint sends and receives packets for one Config with its own buffer.
// It implements packet read/write on top of a Link.
type Endpoint struct {
	Link      *Link
	Config    *Config
	MaxPacket int
}

// NewEndpoint creates an Endpoint with DefaultMaxPacket.
func NewEndpoint(l *Link, c *Config) *Endpoint {
	return &Endpoint{Link: l, Config: mustConfig(c), MaxPacket: DefaultMaxPacket}
}

// Init initializes the underlying channel.
func (e *Endpoint) Init(baud uint32) {
	e.Link.Init(e.Config, baud)
}

// Send transmits a copy of pkt, so pkt is never encoded in place.
func (e *Endpoint) Send(pkt []byte) {
	e.Link.Transmit(e.Config, append([]byte(nil), pkt...))
}

// Recv blocks until a packet is received.
func (e *Endpoint) Recv() *Packet {
	size := e.MaxPacket
	if size <= 0 {
		size = DefaultMaxPacket
	}
	buf := make([]byte, size)
	length, errs := e.Link.Receive(e.Config, buf)
	if uint64(length) < uint64(size) {
		buf = buf[:length]
	}
	return &Packet{Data: buf, Length: length, Errors: errs}
}

// ReadPacket receives a packet. On line errors it returns the data with
// *LineError, on truncation with *TruncatedError which also carries any
// line errors.
func (e *Endpoint) ReadPacket() ([]byte, error) {
	pkt := e.Recv()
	if pkt.Truncated() {
		return pkt.Data, &TruncatedError{Length: pkt.Length, Capacity: len(pkt.Data), Flags: pkt.Errors}
	}
	if pkt.Errors != 0 {
		return pkt.Data, &LineError{Flags: pkt.Errors}
	}
	return pkt.Data, nil
}

// WritePacket sends a packet, it never fails.
func (e *Endpoint) WritePacket(pkt []byte) error {
	e.Send(pkt)
	return nil
}
