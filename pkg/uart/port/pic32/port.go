// Package pic32 implements the UART port contract for PIC32MX-style
// peripherals by polling their registers.
package pic32

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/uart.go/pkg/uart/hw"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

// DefaultPeripheralClock is the peripheral bus clock in Hz.
const DefaultPeripheralClock uint32 = 40000000

// Port drives the peripherals of a hw.Bank.
type Port struct {
	bank  hw.Bank
	clock uint32
}

// New creates a Port over the bank with the given peripheral clock.
func New(bank hw.Bank, peripheralClock uint32) *Port {
	if peripheralClock == 0 {
		peripheralClock = DefaultPeripheralClock
	}
	return &Port{bank: bank, clock: peripheralClock}
}

// Channels returns the number of channels available.
func (p *Port) Channels() int {
	return p.bank.Channels()
}

// BaudDivisor computes the baud rate generator value, rounded to the
// nearest divisor with 16x oversampling.
func BaudDivisor(peripheralClock, baud uint32) uint32 {
	if baud == 0 {
		panic("pic32: baud rate must not be 0")
	}
	div := (peripheralClock/baud + 8) / 16
	if div == 0 {
		panic(fmt.Sprintf("pic32: baud rate %d too high for clock %d", baud, peripheralClock))
	}
	return div - 1
}

// Init implements port.Port.
func (p *Port) Init(ch port.Channel, baud uint32) {
	u := p.bank.Peripheral(ch)
	brg := BaudDivisor(p.clock, baud)
	u.Mode().Store(0)
	u.Status().Store(0)
	u.BaudRate().Store(brg)
	u.Mode().Store(hw.ModeOn)
	u.Status().Store(hw.StatusTxEnable | hw.StatusRxEnable)
	glog.V(2).Infof("%s: baud %d, brg %d", ch, baud, brg)
}

// Transmit implements port.Port.
func (p *Port) Transmit(ch port.Channel, data []byte) {
	u := p.bank.Peripheral(ch)
	sta, tx := u.Status(), u.TxData()
	for _, b := range data {
		for sta.Load()&hw.StatusTxBufFull != 0 {
			// busy-wait
		}
		tx.Store(uint32(b))
	}
}

// Receive implements port.Port. An overrun is cleared and receiving
// continues; bytes lost to it are not reported.
func (p *Port) Receive(ch port.Channel, buf []byte, n uint32, errs *port.ErrorFlags) {
	u := p.bank.Peripheral(ch)
	if buf != nil && uint64(len(buf)) < uint64(n) {
		panic(fmt.Sprintf("pic32: buffer of %d bytes cannot hold %d", len(buf), n))
	}
	sta, rx := u.Status(), u.RxData()
	for i := uint32(0); i < n; i++ {
		var v uint32
		for v = sta.Load(); v&hw.StatusRxDataAvail == 0; v = sta.Load() {
			if v&hw.StatusOverrun != 0 {
				sta.Clear(hw.StatusOverrun)
				glog.V(3).Infof("%s: overrun cleared", ch)
			}
		}
		if errs != nil {
			if v&hw.StatusParityErr != 0 {
				*errs |= port.ErrParity
			}
			if v&hw.StatusFramingErr != 0 {
				*errs |= port.ErrFraming
			}
		}
		b := byte(rx.Load())
		if buf != nil {
			buf[i] = b
		}
	}
}
