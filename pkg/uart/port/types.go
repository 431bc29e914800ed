package port

import (
	"fmt"
	"strings"
)

// Channel identifies one physical UART instance. Channels are 1-based.
type Channel uint8

// Predefined channels.
const (
	UART1 Channel = iota + 1
	UART2
	UART3
	UART4
	UART5
	UART6

	// MaxChannel is the largest channel any port may expose.
	MaxChannel = UART6
)

// Index returns the 0-based table index of the channel.
func (c Channel) Index() int {
	return int(c) - 1
}

// String implements fmt.Stringer.
func (c Channel) String() string {
	return fmt.Sprintf("UART%d", c)
}

// ChannelError is the panic value for an out-of-range channel.
type ChannelError struct {
	Channel Channel
	Max     int
}

// Error implements error.
func (e *ChannelError) Error() string {
	return fmt.Sprintf("invalid channel %d (1..%d)", e.Channel, e.Max)
}

// MustBeValid panics with *ChannelError unless 1 <= ch <= count.
func MustBeValid(ch Channel, count int) {
	if ch == 0 || int(ch) > count || ch > MaxChannel {
		panic(&ChannelError{Channel: ch, Max: count})
	}
}

// ErrorFlags summarizes line errors seen during a receive.
type ErrorFlags uint8

// Error flags.
const (
	ErrParity ErrorFlags = 1 << iota
	ErrFraming
)

// Has reports whether all bits of f are set.
func (e ErrorFlags) Has(f ErrorFlags) bool {
	return e&f == f
}

// String implements fmt.Stringer.
func (e ErrorFlags) String() string {
	if e == 0 {
		return "none"
	}
	var names []string
	if e.Has(ErrParity) {
		names = append(names, "parity")
	}
	if e.Has(ErrFraming) {
		names = append(names, "framing")
	}
	if rest := e &^ (ErrParity | ErrFraming); rest != 0 {
		names = append(names, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(names, "|")
}

// IOError is the panic value of a port whose device failed, e.g. a
// serial adapter unplugged. Unlike *ChannelError it is not a programming
// error and may be recovered to shut down cleanly.
type IOError struct {
	Op     string
	Device string
	Err    error
}

// Error implements error.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// RecoverIOError is deferred to turn a *IOError panic into *err.
// Other panics are propagated.
func RecoverIOError(err *error) {
	if r := recover(); r != nil {
		ioErr, ok := r.(*IOError)
		if !ok {
			panic(r)
		}
		*err = ioErr
	}
}

// Port is the driver contract consumed by the framing layer.
type Port interface {
	// Init resets the channel and configures it for the baud rate.
	Init(ch Channel, baud uint32)
	// Transmit writes data byte by byte, blocking while the hardware
	// transmit buffer is full.
	Transmit(ch Channel, data []byte)
	// Receive reads n bytes into buf, or discards them when buf is nil.
	// Per-byte line errors are ORed into errs when errs is not nil.
	Receive(ch Channel, buf []byte, n uint32, errs *ErrorFlags)
}
