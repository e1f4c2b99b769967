package uart

// SimPort is a scripted, in-memory Port implementation for tests and
// loopback demos. Transmitted bytes are captured in order; received bytes
// are delivered from a queue the test feeds; hardware error flags are
// injected explicitly.
//
// SimPort carries no locking of its own: it relies on being accessed only
// through a single Driver, whose interrupt mask serializes every call.
type SimPort struct {
	initErr error

	txIntEnabled bool
	rxIntEnabled bool

	sent    []byte
	rxQueue []byte
	flags   ErrorFlags

	loopback bool
}

// NewSimPort creates an idle simulated port.
func NewSimPort() *SimPort {
	return &SimPort{}
}

// NewLoopbackPort creates a simulated port that feeds every transmitted
// byte straight back into its receive queue.
func NewLoopbackPort() *SimPort {
	return &SimPort{loopback: true}
}

// FailInit makes the next Init call return err, simulating an unavailable
// peripheral.
func (p *SimPort) FailInit(err error) {
	p.initErr = err
}

// Init implements Port.
func (p *SimPort) Init() error {
	return p.initErr
}

// TxReady implements Port. The simulated transmit data register is always
// empty.
func (p *SimPort) TxReady() bool {
	return true
}

// RxReady implements Port. A byte is pending when the queue is non-empty;
// an injected error flag also asserts the event, the way a hardware status
// register would.
func (p *SimPort) RxReady() bool {
	return len(p.rxQueue) > 0 || p.flags != 0
}

// WriteByte implements Port.
func (p *SimPort) WriteByte(b byte) {
	p.sent = append(p.sent, b)
	if p.loopback {
		p.rxQueue = append(p.rxQueue, b)
	}
}

// ReadByte implements Port. Returns 0 when the queue is empty.
func (p *SimPort) ReadByte() byte {
	if len(p.rxQueue) == 0 {
		return 0
	}

	b := p.rxQueue[0]
	p.rxQueue = p.rxQueue[1:]

	return b
}

// SetTxInterrupt implements Port.
func (p *SimPort) SetTxInterrupt(enabled bool) {
	p.txIntEnabled = enabled
}

// SetRxInterrupt implements Port.
func (p *SimPort) SetRxInterrupt(enabled bool) {
	p.rxIntEnabled = enabled
}

// TxInterruptEnabled implements Port.
func (p *SimPort) TxInterruptEnabled() bool {
	return p.txIntEnabled
}

// RxInterruptEnabled implements Port.
func (p *SimPort) RxInterruptEnabled() bool {
	return p.rxIntEnabled
}

// ErrorFlags implements Port.
func (p *SimPort) ErrorFlags() ErrorFlags {
	return p.flags
}

// ClearErrorFlag implements Port.
func (p *SimPort) ClearErrorFlag(flag ErrorFlags) {
	p.flags &^= flag
}

// InjectError asserts hardware error flags for the next receive event.
func (p *SimPort) InjectError(flags ErrorFlags) {
	p.flags |= flags
}

// QueueBytes appends bytes to the receive queue.
func (p *SimPort) QueueBytes(b []byte) {
	p.rxQueue = append(p.rxQueue, b...)
}

// QueueLine appends s plus a line terminator to the receive queue.
func (p *SimPort) QueueLine(s string) {
	p.rxQueue = append(p.rxQueue, s...)
	p.rxQueue = append(p.rxQueue, '\n')
}

// Sent returns all bytes written to the transmit data register so far.
func (p *SimPort) Sent() []byte {
	return p.sent
}

// ClearSent discards the transmit capture.
func (p *SimPort) ClearSent() {
	p.sent = nil
}

// Pending reports whether an enabled interrupt source has an event to
// service. The dispatcher loop uses it to decide when to invoke the
// driver's interrupt handler.
func (p *SimPort) Pending() bool {
	if p.txIntEnabled && p.TxReady() {
		return true
	}

	return p.rxIntEnabled && p.RxReady()
}
