package uart

import (
	"fmt"
	"sync"

	"github.com/tokenline/tokenline/errs"
	"github.com/tokenline/tokenline/internal/options"
)

// DefaultRxBufferSize is the receive buffer capacity used when no option
// overrides it. One byte of the capacity is always reserved for the NUL
// terminator appended on line completion.
const DefaultRxBufferSize = 100

// Option configures a Driver.
type Option = options.Option[*Driver]

// WithRxBufferSize sets the receive buffer capacity in bytes. The minimum
// is 2: one payload byte plus the reserved terminator slot.
func WithRxBufferSize(n int) Option {
	return options.New(func(d *Driver) error {
		if n < 2 {
			return fmt.Errorf("rx buffer size %d too small, need at least 2", n)
		}
		d.rxBuf = make([]byte, n)

		return nil
	})
}

// Driver owns one serial peripheral instance. All mutable transfer state is
// encapsulated here; there is exactly one Driver per Port.
type Driver struct {
	port Port

	// irq models the global interrupt mask. Entry points hold it only
	// across the state check-and-set; ServiceInterrupt holds it for its
	// run-to-completion body.
	irq sync.Mutex

	// Transmit context. Armed by Send, drained and torn down by the
	// interrupt handler.
	txState State
	txBuf   []byte
	txIdx   int

	// Receive context. Armed by Receive, filled by the interrupt handler
	// until a line terminator, overflow or hardware error.
	rxState State
	rxBuf   []byte
	rxIdx   int
	errKind ErrorKind
}

// NewDriver creates a driver bound to port. The port is not initialized
// until Init is called.
func NewDriver(port Port, opts ...Option) (*Driver, error) {
	d := &Driver{port: port}

	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	if d.rxBuf == nil {
		d.rxBuf = make([]byte, DefaultRxBufferSize)
	}

	return d, nil
}

// Init brings up the underlying port, leaving both halves idle with all
// interrupt sources disabled.
func (d *Driver) Init() error {
	if err := d.port.Init(); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrHardwareUnavailable, err)
	}

	d.irq.Lock()
	defer d.irq.Unlock()

	d.port.SetTxInterrupt(false)
	d.port.SetRxInterrupt(false)
	d.txState = StateIdle
	d.rxState = StateIdle
	d.errKind = ErrKindNone

	return nil
}

// Send arms an asynchronous transmission of p and returns immediately.
// The bytes are shifted out one per interrupt by ServiceInterrupt; p must
// not be modified until TxState returns to StateIdle.
//
// Returns errs.ErrNilBuffer for a nil slice and errs.ErrTxBusy if a
// transmission is already in flight; both are local rejections the caller
// may retry later.
func (d *Driver) Send(p []byte) error {
	if p == nil {
		return errs.ErrNilBuffer
	}

	d.irq.Lock()
	if d.txState != StateIdle {
		d.irq.Unlock()
		return fmt.Errorf("%w: transmission in flight", errs.ErrTxBusy)
	}

	// Indivisible check-and-set: transition and context arming happen under
	// the interrupt mask, the transfer itself does not.
	d.txState = StateBusy
	d.txBuf = p
	d.txIdx = 0
	d.port.SetTxInterrupt(true)
	d.irq.Unlock()

	return nil
}

// Receive arms an asynchronous reception into the driver-owned buffer and
// returns immediately. Reception runs until a line terminator ('\n' or
// '\r'), buffer exhaustion, or a hardware error.
//
// Returns errs.ErrRxBusy if a reception is already in flight.
func (d *Driver) Receive() error {
	d.irq.Lock()
	if d.rxState != StateIdle {
		d.irq.Unlock()
		return fmt.Errorf("%w: reception in flight", errs.ErrRxBusy)
	}

	d.rxState = StateBusy
	d.rxIdx = 0
	d.errKind = ErrKindNone
	d.port.SetRxInterrupt(true)
	d.irq.Unlock()

	return nil
}

// ServiceInterrupt is the interrupt handler. It runs to completion,
// handling at most one transmit byte and one receive byte per invocation,
// and may handle both when the port signals both events at once.
//
// Only the interrupt dispatcher may invoke it; application code never calls
// it directly.
func (d *Driver) ServiceInterrupt() {
	d.irq.Lock()
	defer d.irq.Unlock()

	d.serviceTx()
	d.serviceRx()
}

// serviceTx handles the transmit-ready event: one byte out, or teardown
// when the buffer is drained.
func (d *Driver) serviceTx() {
	if d.txState != StateBusy || !d.port.TxInterruptEnabled() || !d.port.TxReady() {
		return
	}

	if d.txBuf != nil && d.txIdx < len(d.txBuf) {
		d.port.WriteByte(d.txBuf[d.txIdx])
		d.txIdx++

		return
	}

	d.port.SetTxInterrupt(false)
	d.txBuf = nil
	d.txState = StateIdle
}

// serviceRx handles the receive-ready event: error classification first,
// then one byte into the receive buffer.
func (d *Driver) serviceRx() {
	if d.rxState != StateBusy || !d.port.RxInterruptEnabled() || !d.port.RxReady() {
		return
	}

	flags := d.port.ErrorFlags()
	if flags != 0 {
		d.port.SetRxInterrupt(false)
		d.rxState = StateError

		// First match wins; the order matches the flag priority of typical
		// serial peripherals.
		switch {
		case flags&FlagOverrun != 0:
			d.errKind = ErrKindOverrun
			d.port.ClearErrorFlag(FlagOverrun)
		case flags&FlagFraming != 0:
			d.errKind = ErrKindFraming
			d.port.ClearErrorFlag(FlagFraming)
		case flags&FlagParity != 0:
			d.errKind = ErrKindParity
			d.port.ClearErrorFlag(FlagParity)
		case flags&FlagNoise != 0:
			d.errKind = ErrKindNoise
			d.port.ClearErrorFlag(FlagNoise)
		}

		return
	}

	if d.rxIdx < len(d.rxBuf)-1 {
		b := d.port.ReadByte()
		d.rxBuf[d.rxIdx] = b
		d.rxIdx++

		if b == '\n' || b == '\r' {
			d.rxBuf[d.rxIdx] = 0
			d.rxState = StateIdle
			d.port.SetRxInterrupt(false)
		}

		return
	}

	// Buffer exhausted before a terminator: truncate and return to idle.
	// The partial line is not flagged as an error, so the caller cannot
	// tell truncation from a terminated line.
	d.port.SetRxInterrupt(false)
	d.rxState = StateIdle
}

// ResetError recovers the receive half from a hardware error: the error
// kind is cleared, the partial line is discarded, the receive-ready
// interrupt source is re-enabled and reception resumes into the same
// context. A no-op unless RxState is StateError.
func (d *Driver) ResetError() {
	d.irq.Lock()
	defer d.irq.Unlock()

	if d.rxState != StateError {
		return
	}

	d.rxState = StateBusy
	d.errKind = ErrKindNone
	d.rxIdx = 0
	d.port.SetRxInterrupt(true)
}

// TxState returns the transmit half's current state.
func (d *Driver) TxState() State {
	d.irq.Lock()
	defer d.irq.Unlock()

	return d.txState
}

// RxState returns the receive half's current state.
func (d *Driver) RxState() State {
	d.irq.Lock()
	defer d.irq.Unlock()

	return d.rxState
}

// LastError returns the hardware error kind recorded by the interrupt
// handler, or ErrKindNone.
func (d *Driver) LastError() ErrorKind {
	d.irq.Lock()
	defer d.irq.Unlock()

	return d.errKind
}

// Line returns a view of the bytes received so far, excluding the NUL
// terminator. The view is only stable while RxState is StateIdle; it is
// invalidated by the next Receive or ResetError call.
func (d *Driver) Line() []byte {
	d.irq.Lock()
	defer d.irq.Unlock()

	return d.rxBuf[:d.rxIdx]
}
