package pic32

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uart.go/pkg/uart/hw"
	"github.com/robotalks/uart.go/pkg/uart/hw/sim"
	"github.com/robotalks/uart.go/pkg/uart/port"
)

var _ port.Port = &Port{}

func newTestPort(channels int) (*Port, *sim.Board) {
	board := sim.NewBoard(channels)
	return New(board.Bank(), 40000000), board
}

func TestBaudDivisor(t *testing.T) {
	testCases := []struct {
		clock, baud, expect uint32
	}{
		{40000000, 9600, 259},
		{40000000, 115200, 21},
		{80000000, 9600, 520},
		{80000000, 115200, 42},
		{16, 1, 0},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.expect, BaudDivisor(tc.clock, tc.baud), "clock %d baud %d", tc.clock, tc.baud)
	}
	require.Panics(t, func() { BaudDivisor(40000000, 0) })
	require.Panics(t, func() { BaudDivisor(100, 100) })
}

func TestInit(t *testing.T) {
	p, board := newTestPort(2)
	require.Equal(t, 2, p.Channels())
	u := board.Peripheral(port.UART2)
	u.Status().Store(hw.StatusRxEnable)
	p.Init(port.UART2, 9600)
	require.Equal(t, uint32(259), u.BaudRate().Load())
	require.Equal(t, hw.ModeOn, u.Mode().Load())
	sta := u.Status().Load()
	require.NotZero(t, sta&hw.StatusTxEnable)
	require.NotZero(t, sta&hw.StatusRxEnable)
	require.Zero(t, board.Peripheral(port.UART1).Mode().Load())
}

func TestInvalidChannel(t *testing.T) {
	p, _ := newTestPort(2)
	for _, ch := range []port.Channel{0, port.UART3} {
		require.Panics(t, func() { p.Init(ch, 9600) })
		require.Panics(t, func() { p.Transmit(ch, []byte{1}) })
		require.Panics(t, func() { p.Receive(ch, nil, 1, nil) })
	}
}

func TestTransmitWaitsForBuffer(t *testing.T) {
	p, board := newTestPort(1)
	u := board.Peripheral(port.UART1)
	u.TxBusyPolls = 3
	p.Init(port.UART1, 9600)
	polls := u.StatusPolls()
	p.Transmit(port.UART1, []byte("abc"))
	require.Equal(t, []byte("abc"), u.Wire())
	// first byte: one poll; following bytes: 3 busy polls + 1 ready poll.
	require.Equal(t, 1+4+4, u.StatusPolls()-polls)
}

func TestReceive(t *testing.T) {
	p, board := newTestPort(1)
	p.Init(port.UART1, 9600)
	p.Transmit(port.UART1, []byte("hello"))
	buf := make([]byte, 5)
	var errs port.ErrorFlags
	p.Receive(port.UART1, buf, uint32(len(buf)), &errs)
	require.Equal(t, []byte("hello"), buf)
	require.Zero(t, errs)
	require.Zero(t, board.Peripheral(port.UART1).Pending())
}

func TestReceiveDiscard(t *testing.T) {
	p, board := newTestPort(1)
	p.Init(port.UART1, 9600)
	u := board.Peripheral(port.UART1)
	u.InjectBytes([]byte{1, 2, 3, 4})
	p.Receive(port.UART1, nil, 3, nil)
	require.Equal(t, 1, u.Pending())
	buf := make([]byte, 1)
	p.Receive(port.UART1, buf, 1, nil)
	require.Equal(t, []byte{4}, buf)
}

func TestReceiveErrors(t *testing.T) {
	testCases := []struct {
		name   string
		frames []sim.Frame
		expect port.ErrorFlags
	}{
		{"clean", sim.Frames([]byte{1, 2}), 0},
		{"parity", []sim.Frame{{Data: 1, Parity: true}, {Data: 2}}, port.ErrParity},
		{"framing", []sim.Frame{{Data: 1}, {Data: 2, Framing: true}}, port.ErrFraming},
		{"both", []sim.Frame{{Data: 1, Framing: true}, {Data: 2, Parity: true}}, port.ErrParity | port.ErrFraming},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, board := newTestPort(1)
			p.Init(port.UART1, 9600)
			board.Peripheral(port.UART1).Inject(tc.frames...)
			buf := make([]byte, 2)
			var errs port.ErrorFlags
			p.Receive(port.UART1, buf, 2, &errs)
			require.Equal(t, []byte{1, 2}, buf)
			require.Equal(t, tc.expect, errs)
		})
	}
}

func TestReceiveAccumulatesIntoCallerFlags(t *testing.T) {
	p, board := newTestPort(1)
	p.Init(port.UART1, 9600)
	board.Peripheral(port.UART1).Inject(sim.Frame{Data: 1, Framing: true})
	errs := port.ErrParity
	p.Receive(port.UART1, nil, 1, &errs)
	require.Equal(t, port.ErrParity|port.ErrFraming, errs)
}

func TestReceiveOverrun(t *testing.T) {
	p, board := newTestPort(1)
	p.Init(port.UART1, 9600)
	u := board.Peripheral(port.UART1)
	u.Inject(sim.Frame{Data: 'a'}, sim.Frame{Data: 'b', Overrun: true}, sim.Frame{Data: 'c'})
	buf := make([]byte, 3)
	var errs port.ErrorFlags
	p.Receive(port.UART1, buf, 3, &errs)
	require.Equal(t, []byte("abc"), buf)
	require.Zero(t, errs)
	require.Equal(t, 1, u.OverrunClears())
}

func TestReceiveShortBuffer(t *testing.T) {
	p, _ := newTestPort(1)
	require.Panics(t, func() { p.Receive(port.UART1, make([]byte, 1), 2, nil) })
}
