// Package sim simulates PIC32-style UART peripherals for tests and for
// running the stack without hardware.
package sim

import (
	"sync"

	"github.com/robotalks/uart.go/pkg/uart/hw"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

// Frame is a byte as seen by a receiver.
type Frame struct {
	Data    byte
	Parity  bool // parity error on this byte
	Framing bool // framing error on this byte
	// Overrun signals an overrun before this byte becomes visible:
	// the status register shows OERR without URXDA until OERR is cleared.
	Overrun bool
}

// Frames converts bytes into error-free frames.
func Frames(data []byte) []Frame {
	frames := make([]Frame, len(data))
	for n, b := range data {
		frames[n].Data = b
	}
	return frames
}

// Peripheral simulates one UART. All register access is serialized.
type Peripheral struct {
	// TxBusyPolls is the number of status reads that report a full
	// transmit buffer after each byte written to TxData.
	TxBusyPolls int

	lock    sync.Mutex
	mode    uint32
	status  uint32
	brg     uint32
	rx      []Frame
	wire    []byte
	txBusy  int
	peer    *Peripheral
	cleared int
	polls   int
}

// Board is a set of simulated peripherals with a hw.Bank over them.
type Board struct {
	peripherals []*Peripheral
	bank        hw.Bank
}

// NewBoard creates a board with the given number of channels. Each channel
// is looped back to itself.
func NewBoard(channels int) *Board {
	b := &Board{peripherals: make([]*Peripheral, channels)}
	hwPeripherals := make([]hw.Peripheral, channels)
	for n := range b.peripherals {
		p := &Peripheral{}
		p.peer = p
		b.peripherals[n] = p
		hwPeripherals[n] = p
	}
	b.bank = hw.NewBank(hwPeripherals...)
	return b
}

// Bank returns the bank for a port driver.
func (b *Board) Bank() hw.Bank {
	return b.bank
}

// Peripheral gets the simulated peripheral of a channel.
func (b *Board) Peripheral(ch port.Channel) *Peripheral {
	port.MustBeValid(ch, len(b.peripherals))
	return b.peripherals[ch.Index()]
}

// Connect cross-wires two channels: bytes transmitted on one are received
// by the other.
func (b *Board) Connect(ch1, ch2 port.Channel) {
	p1, p2 := b.Peripheral(ch1), b.Peripheral(ch2)
	p1.lock.Lock()
	p1.peer = p2
	p1.lock.Unlock()
	p2.lock.Lock()
	p2.peer = p1
	p2.lock.Unlock()
}

// Inject queues frames on the receive line.
func (p *Peripheral) Inject(frames ...Frame) {
	p.lock.Lock()
	p.rx = append(p.rx, frames...)
	p.lock.Unlock()
}

// InjectBytes queues error-free bytes on the receive line.
func (p *Peripheral) InjectBytes(data []byte) {
	p.Inject(Frames(data)...)
}

// Wire returns a copy of all bytes accepted by the transmitter.
func (p *Peripheral) Wire() []byte {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]byte(nil), p.wire...)
}

// Pending returns the number of frames not yet read.
func (p *Peripheral) Pending() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.rx)
}

// OverrunClears returns how many times OERR was cleared.
func (p *Peripheral) OverrunClears() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.cleared
}

// StatusPolls returns how many times the status register was read.
func (p *Peripheral) StatusPolls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.polls
}

// Mode implements hw.Peripheral.
func (p *Peripheral) Mode() hw.Register { return &register{p: p, kind: regMode} }

// Status implements hw.Peripheral.
func (p *Peripheral) Status() hw.Register { return &register{p: p, kind: regStatus} }

// TxData implements hw.Peripheral.
func (p *Peripheral) TxData() hw.Register { return &register{p: p, kind: regTx} }

// RxData implements hw.Peripheral.
func (p *Peripheral) RxData() hw.Register { return &register{p: p, kind: regRx} }

// BaudRate implements hw.Peripheral.
func (p *Peripheral) BaudRate() hw.Register { return &register{p: p, kind: regBaud} }

// enabled must be called with lock held.
func (p *Peripheral) enabled(mask uint32) bool {
	return p.mode&hw.ModeOn != 0 && p.status&mask == mask
}

func (p *Peripheral) receive(b byte) {
	p.lock.Lock()
	if p.enabled(hw.StatusRxEnable) {
		p.rx = append(p.rx, Frame{Data: b})
	}
	p.lock.Unlock()
}

type regKind int

const (
	regMode regKind = iota
	regStatus
	regTx
	regRx
	regBaud
)

type register struct {
	p    *Peripheral
	kind regKind
}

func (r *register) Load() uint32 {
	p := r.p
	p.lock.Lock()
	defer p.lock.Unlock()
	switch r.kind {
	case regMode:
		return p.mode
	case regStatus:
		p.polls++
		v := p.status &^ hw.StatusReadOnlyMask
		if p.txBusy > 0 {
			p.txBusy--
			v |= hw.StatusTxBufFull
		}
		if len(p.rx) > 0 {
			if head := p.rx[0]; head.Overrun {
				v |= hw.StatusOverrun
			} else {
				v |= hw.StatusRxDataAvail
				if head.Parity {
					v |= hw.StatusParityErr
				}
				if head.Framing {
					v |= hw.StatusFramingErr
				}
			}
		}
		return v
	case regRx:
		if len(p.rx) == 0 || p.rx[0].Overrun {
			return 0
		}
		b := p.rx[0].Data
		p.rx = p.rx[1:]
		return uint32(b)
	case regBaud:
		return p.brg
	}
	return 0
}

func (r *register) Store(value uint32) {
	p := r.p
	p.lock.Lock()
	switch r.kind {
	case regMode:
		p.mode = value
	case regStatus:
		p.status = value &^ (hw.StatusReadOnlyMask | hw.StatusOverrun)
	case regTx:
		if !p.enabled(hw.StatusTxEnable) {
			break
		}
		b, peer := byte(value), p.peer
		p.wire = append(p.wire, b)
		p.txBusy = p.TxBusyPolls
		// the peer may be transmitting back to us concurrently.
		p.lock.Unlock()
		peer.receive(b)
		return
	case regBaud:
		p.brg = value
	}
	p.lock.Unlock()
}

func (r *register) Clear(mask uint32) {
	p := r.p
	p.lock.Lock()
	defer p.lock.Unlock()
	switch r.kind {
	case regMode:
		p.mode &^= mask
	case regStatus:
		if mask&hw.StatusOverrun != 0 {
			p.cleared++
			if len(p.rx) > 0 && p.rx[0].Overrun {
				p.rx[0].Overrun = false
			}
		}
		p.status &^= mask
	case regBaud:
		p.brg &^= mask
	}
}

func (r *register) Set(mask uint32) {
	p := r.p
	p.lock.Lock()
	defer p.lock.Unlock()
	switch r.kind {
	case regMode:
		p.mode |= mask
	case regStatus:
		p.status |= mask &^ (hw.StatusReadOnlyMask | hw.StatusOverrun)
	case regBaud:
		p.brg |= mask
	}
}
