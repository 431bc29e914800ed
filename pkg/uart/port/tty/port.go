// Package tty implements the UART port contract over host serial devices.
//
// Host serial drivers do not report parity or framing errors per byte, so
// Receive never sets error flags. Bytes failing the parity check are
// dropped or replaced by the operating system.
package tty

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"
	"github.com/tarm/serial"

	"github.com/robotalks/uart.go/pkg/uart/port"
)

// Stream is an opened serial device.
type Stream interface {
	io.ReadWriteCloser
}

// OpenFunc opens a serial device.
type OpenFunc func(*serial.Config) (Stream, error)

// Port maps channels to serial device names.
type Port struct {
	Devices []string
	Parity  serial.Parity
	Open    OpenFunc

	streams []Stream
	lock    sync.Mutex
}

// New creates a Port, devices[0] backs port.UART1.
func New(devices ...string) *Port {
	if len(devices) == 0 || len(devices) > int(port.MaxChannel) {
		panic("tty: 1..6 devices required")
	}
	return &Port{
		Devices: devices,
		Parity:  serial.ParityNone,
		Open:    openPort,
		streams: make([]Stream, len(devices)),
	}
}

func openPort(c *serial.Config) (Stream, error) {
	s, err := serial.OpenPort(c)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Channels returns the number of channels available.
func (p *Port) Channels() int {
	return len(p.Devices)
}

// Init implements port.Port. An already opened device is closed and opened
// again with the new baud rate.
func (p *Port) Init(ch port.Channel, baud uint32) {
	port.MustBeValid(ch, len(p.Devices))
	if baud == 0 {
		panic("tty: baud rate must not be 0")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if s := p.streams[ch.Index()]; s != nil {
		if err := s.Close(); err != nil {
			glog.Warningf("%s: close %s: %v", ch, p.Devices[ch.Index()], err)
		}
		p.streams[ch.Index()] = nil
	}
	s, err := p.Open(&serial.Config{
		Name:   p.Devices[ch.Index()],
		Baud:   int(baud),
		Size:   8,
		Parity: p.Parity,
	})
	if err != nil {
		panic(&port.IOError{Op: "open", Device: p.Devices[ch.Index()], Err: err})
	}
	p.streams[ch.Index()] = s
	glog.V(2).Infof("%s: %s opened, baud %d", ch, p.Devices[ch.Index()], baud)
}

// Transmit implements port.Port.
func (p *Port) Transmit(ch port.Channel, data []byte) {
	s := p.stream(ch)
	if _, err := s.Write(data); err != nil {
		panic(&port.IOError{Op: "write", Device: p.Devices[ch.Index()], Err: err})
	}
}

// Receive implements port.Port. errs is left unchanged.
// A failed device panics with *port.IOError.
func (p *Port) Receive(ch port.Channel, buf []byte, n uint32, errs *port.ErrorFlags) {
	s := p.stream(ch)
	var err error
	if buf != nil {
		_, err = io.ReadFull(s, buf[:n])
	} else {
		_, err = io.CopyN(io.Discard, s, int64(n))
	}
	if err != nil {
		panic(&port.IOError{Op: "read", Device: p.Devices[ch.Index()], Err: err})
	}
}

// Close closes all opened devices.
func (p *Port) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	var firstErr error
	for n, s := range p.streams {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.streams[n] = nil
	}
	return firstErr
}

func (p *Port) stream(ch port.Channel) Stream {
	port.MustBeValid(ch, len(p.Devices))
	p.lock.Lock()
	s := p.streams[ch.Index()]
	p.lock.Unlock()
	if s == nil {
		panic(fmt.Sprintf("tty: %s used before Init", ch))
	}
	return s
}
