package uart

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/robotalks/uart.go/pkg/uart/port"
)

// LengthSize is the size of the packet length prefix.
const LengthSize = 4

// Link frames packets over a port.Port. It holds no per-channel state and
// provides no locking.
type Link struct {
	Port port.Port
}

// NewLink creates a Link.
func NewLink(p port.Port) *Link {
	return &Link{Port: p}
}

// Init initializes the channel of the config.
func (l *Link) Init(c *Config, baud uint32) {
	l.Port.Init(mustConfig(c).channel, baud)
}

// Transmit sends one packet. The payload is encoded in place, pkt holds the
// encoded bytes afterwards.
func (l *Link) Transmit(c *Config, pkt []byte) {
	mustConfig(c)
	length := packetLength(len(pkt))
	c.transform.Transform(pkt, Encode)
	var prefix [LengthSize]byte
	binary.NativeEndian.PutUint32(prefix[:], length)
	l.Port.Transmit(c.channel, prefix[:])
	l.Port.Transmit(c.channel, pkt)
	glog.V(2).Infof("%s: TX %d bytes", c.channel, len(pkt))
}

// packetLength panics if n doesn't fit the length prefix.
func packetLength(n int) uint32 {
	if uint64(n) > math.MaxUint32 {
		panic(fmt.Sprintf("uart: packet of %d bytes exceeds length prefix", n))
	}
	return uint32(n)
}

// Receive receives one packet into buf and returns the declared packet
// length with the line errors seen on any byte of the packet. A declared
// length larger than len(buf) means the packet was truncated: only len(buf)
// bytes are stored and the rest is drained from the line.
func (l *Link) Receive(c *Config, buf []byte) (uint32, port.ErrorFlags) {
	mustConfig(c)
	var errs port.ErrorFlags
	var prefix [LengthSize]byte
	l.Port.Receive(c.channel, prefix[:], LengthSize, &errs)
	pktLen := binary.NativeEndian.Uint32(prefix[:])

	recvLen := pktLen
	if uint64(recvLen) > uint64(len(buf)) {
		recvLen = uint32(len(buf))
	}
	l.Port.Receive(c.channel, buf, recvLen, &errs)
	if pktLen > recvLen {
		l.Port.Receive(c.channel, nil, pktLen-recvLen, &errs)
		glog.V(2).Infof("%s: RX truncated %d to %d bytes", c.channel, pktLen, recvLen)
	}
	c.transform.Transform(buf[:recvLen], Decode)
	if glog.V(2) {
		glog.Infof("%s: RX %d bytes, errors: %s", c.channel, pktLen, errs)
	}
	return pktLen, errs
}
