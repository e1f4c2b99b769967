package uart

// ErrorFlags is a bit set of hardware receive-error conditions, laid out the
// way serial peripherals typically expose them in their status register.
type ErrorFlags uint8

const (
	FlagParity  ErrorFlags = 1 << 0 // parity check failed
	FlagFraming ErrorFlags = 1 << 1 // stop bit not detected
	FlagNoise   ErrorFlags = 1 << 2 // noise detected on the line
	FlagOverrun ErrorFlags = 1 << 3 // byte lost before the previous one was read
)

// Port abstracts the serial peripheral's registers: status flags, the data
// register, interrupt-source enables and error-flag handling. Clock and pin
// configuration belong to the Port implementation, behind Init.
//
// All methods are invoked with the driver's interrupt mask held, so
// implementations need no locking of their own as long as they are touched
// only through a single Driver.
type Port interface {
	// Init brings up the peripheral. Called once by Driver.Init.
	Init() error

	// TxReady reports whether the transmit data register can accept a byte.
	TxReady() bool

	// RxReady reports whether a received byte (or an asserted error flag)
	// is pending.
	RxReady() bool

	// WriteByte places one byte into the transmit data register.
	WriteByte(b byte)

	// ReadByte takes one byte from the receive data register.
	ReadByte() byte

	// SetTxInterrupt enables or disables the transmit-ready interrupt
	// source.
	SetTxInterrupt(enabled bool)

	// SetRxInterrupt enables or disables the receive-ready interrupt
	// source.
	SetRxInterrupt(enabled bool)

	// TxInterruptEnabled reports the transmit-ready interrupt source state.
	TxInterruptEnabled() bool

	// RxInterruptEnabled reports the receive-ready interrupt source state.
	RxInterruptEnabled() bool

	// ErrorFlags returns the asserted hardware error flags.
	ErrorFlags() ErrorFlags

	// ClearErrorFlag acknowledges one asserting error flag.
	ClearErrorFlag(flag ErrorFlags)
}
