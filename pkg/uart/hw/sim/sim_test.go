package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uart.go/pkg/uart/hw"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

func enable(p hw.Peripheral) {
	p.Mode().Store(hw.ModeOn)
	p.Status().Store(hw.StatusTxEnable | hw.StatusRxEnable)
}

func TestLoopback(t *testing.T) {
	b := NewBoard(2)
	p := b.Peripheral(port.UART1)
	enable(p)
	p.TxData().Store(0x41)
	p.TxData().Store(0x142)
	require.Equal(t, []byte{0x41, 0x42}, p.Wire())
	require.Equal(t, 2, p.Pending())
	require.NotZero(t, p.Status().Load()&hw.StatusRxDataAvail)
	require.Equal(t, uint32(0x41), p.RxData().Load())
	require.Equal(t, uint32(0x42), p.RxData().Load())
	require.Zero(t, p.Status().Load()&hw.StatusRxDataAvail)
	require.Empty(t, b.Peripheral(port.UART2).Wire())
}

func TestDisabledTransmitter(t *testing.T) {
	p := NewBoard(1).Peripheral(port.UART1)
	p.TxData().Store(1)
	require.Empty(t, p.Wire())
	p.Mode().Store(hw.ModeOn)
	p.Status().Store(hw.StatusTxEnable)
	p.TxData().Store(1)
	require.Equal(t, []byte{1}, p.Wire())
	require.Zero(t, p.Pending(), "receiver disabled")
}

func TestConnect(t *testing.T) {
	b := NewBoard(2)
	b.Connect(port.UART1, port.UART2)
	p1, p2 := b.Peripheral(port.UART1), b.Peripheral(port.UART2)
	enable(p1)
	enable(p2)
	p1.TxData().Store(7)
	p2.TxData().Store(9)
	require.Equal(t, 1, p1.Pending())
	require.Equal(t, 1, p2.Pending())
	require.Equal(t, uint32(9), p1.RxData().Load())
	require.Equal(t, uint32(7), p2.RxData().Load())
}

func TestStatusFlags(t *testing.T) {
	p := NewBoard(1).Peripheral(port.UART1)
	p.Inject(
		Frame{Data: 1, Parity: true},
		Frame{Data: 2, Framing: true},
		Frame{Data: 3, Overrun: true},
	)
	sta := p.Status().Load()
	require.NotZero(t, sta&hw.StatusRxDataAvail)
	require.NotZero(t, sta&hw.StatusParityErr)
	require.Zero(t, sta&hw.StatusFramingErr)
	p.RxData().Load()

	sta = p.Status().Load()
	require.NotZero(t, sta&hw.StatusFramingErr)
	require.Zero(t, sta&hw.StatusParityErr)
	p.RxData().Load()

	sta = p.Status().Load()
	require.Zero(t, sta&hw.StatusRxDataAvail)
	require.NotZero(t, sta&hw.StatusOverrun)
	require.Zero(t, p.RxData().Load(), "no data while overrun pending")
	p.Status().Clear(hw.StatusOverrun)
	require.Equal(t, 1, p.OverrunClears())
	sta = p.Status().Load()
	require.Zero(t, sta&hw.StatusOverrun)
	require.NotZero(t, sta&hw.StatusRxDataAvail)
	require.Equal(t, uint32(3), p.RxData().Load())
	require.Equal(t, 4, p.StatusPolls())
}

func TestTxBusy(t *testing.T) {
	p := NewBoard(1).Peripheral(port.UART1)
	p.TxBusyPolls = 2
	enable(p)
	p.TxData().Store(1)
	require.NotZero(t, p.Status().Load()&hw.StatusTxBufFull)
	require.NotZero(t, p.Status().Load()&hw.StatusTxBufFull)
	require.Zero(t, p.Status().Load()&hw.StatusTxBufFull)
}

func TestRegisters(t *testing.T) {
	p := NewBoard(1).Peripheral(port.UART1)
	p.BaudRate().Store(259)
	require.Equal(t, uint32(259), p.BaudRate().Load())
	p.Mode().Set(hw.ModeOn)
	require.Equal(t, hw.ModeOn, p.Mode().Load())
	p.Mode().Clear(hw.ModeOn)
	require.Zero(t, p.Mode().Load())
	p.Status().Set(hw.StatusRxEnable | hw.StatusRxDataAvail)
	require.Equal(t, hw.StatusRxEnable, p.Status().Load(), "hardware bits are not writable")
}
