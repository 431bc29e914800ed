package hw

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uart.go/pkg/uart/port"
)

type fakeReg struct{ v uint32 }

func (r *fakeReg) Load() uint32       { return r.v }
func (r *fakeReg) Store(value uint32) { r.v = value }
func (r *fakeReg) Clear(mask uint32)  { r.v &^= mask }
func (r *fakeReg) Set(mask uint32)    { r.v |= mask }

type fakePeripheral struct {
	regs [5]fakeReg
}

func (p *fakePeripheral) Mode() Register     { return &p.regs[0] }
func (p *fakePeripheral) Status() Register   { return &p.regs[1] }
func (p *fakePeripheral) TxData() Register   { return &p.regs[2] }
func (p *fakePeripheral) RxData() Register   { return &p.regs[3] }
func (p *fakePeripheral) BaudRate() Register { return &p.regs[4] }

func TestBank(t *testing.T) {
	p1, p2 := &fakePeripheral{}, &fakePeripheral{}
	b := NewBank(p1, p2)
	require.Equal(t, 2, b.Channels())
	require.Same(t, p1, b.Peripheral(port.UART1))
	require.Same(t, p2, b.Peripheral(port.UART2))
	require.Panics(t, func() { b.Peripheral(0) })
	require.Panics(t, func() { b.Peripheral(port.UART3) })
}

func TestNewBankBounds(t *testing.T) {
	require.Panics(t, func() { NewBank() })
	ps := make([]Peripheral, 7)
	for n := range ps {
		ps[n] = &fakePeripheral{}
	}
	require.Panics(t, func() { NewBank(ps...) })
}
