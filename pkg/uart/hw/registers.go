// Package hw models UART peripheral registers as typed accessors.
package hw

// Register is one peripheral register.
type Register interface {
	// Load reads the register.
	Load() uint32
	// Store writes the register.
	Store(value uint32)
	// Clear clears the bits in mask (write-to-clear).
	Clear(mask uint32)
	// Set sets the bits in mask (write-to-set).
	Set(mask uint32)
}

// Peripheral exposes the register set of one UART.
type Peripheral interface {
	Mode() Register
	Status() Register
	TxData() Register
	RxData() Register
	BaudRate() Register
}

// Mode register bits.
const (
	ModeOn uint32 = 1 << 15
)

// Status register bits.
const (
	StatusRxDataAvail uint32 = 1 << 0  // URXDA
	StatusOverrun     uint32 = 1 << 1  // OERR, write-to-clear
	StatusFramingErr  uint32 = 1 << 2  // FERR
	StatusParityErr   uint32 = 1 << 3  // PERR
	StatusTxBufFull   uint32 = 1 << 9  // UTXBF
	StatusTxEnable    uint32 = 1 << 10 // UTXEN
	StatusRxEnable    uint32 = 1 << 12 // URXEN
)

// StatusReadOnlyMask covers the status bits driven by hardware.
const StatusReadOnlyMask = StatusRxDataAvail | StatusFramingErr | StatusParityErr | StatusTxBufFull
