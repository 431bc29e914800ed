package hw

import "github.com/robotalks/uart.go/pkg/uart/port"

// Bank maps channels to peripherals. It is constructed explicitly and
// owned by a port driver.
type Bank struct {
	peripherals []Peripheral
}

// NewBank creates a Bank, peripherals[0] is port.UART1.
func NewBank(peripherals ...Peripheral) Bank {
	if len(peripherals) == 0 || len(peripherals) > int(port.MaxChannel) {
		panic("hw: bank must hold 1..6 peripherals")
	}
	return Bank{peripherals: peripherals}
}

// Channels returns the number of channels in the bank.
func (b Bank) Channels() int {
	return len(b.peripherals)
}

// Peripheral looks up the peripheral of a channel, panics with
// *port.ChannelError if the channel is out of range.
func (b Bank) Peripheral(ch port.Channel) Peripheral {
	port.MustBeValid(ch, len(b.peripherals))
	return b.peripherals[ch.Index()]
}
