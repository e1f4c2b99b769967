// Package pipeline drives one extraction cycle: tokenize a JSON source
// buffer once, then walk the root object's fields and emit one formatted
// line per step over the transport, never blocking on I/O.
//
// The pipeline only hands a line to the driver when the transmit half is
// idle and the configured inter-line gap has elapsed; a Step that cannot
// make progress simply reports so and the caller tries again after
// servicing the dispatcher. The receive buffer is never read while a
// reception is in flight.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tokenline/tokenline/capture"
	"github.com/tokenline/tokenline/errs"
	"github.com/tokenline/tokenline/internal/hash"
	"github.com/tokenline/tokenline/internal/options"
	"github.com/tokenline/tokenline/jsontok"
	"github.com/tokenline/tokenline/tick"
	"github.com/tokenline/tokenline/uart"
)

// ErrRootNotObject indicates the source's top-level element is not a JSON
// object.
var ErrRootNotObject = errors.New("root element is not an object")

// DefaultTokenCapacity is the token array size used when no option
// overrides it.
const DefaultTokenCapacity = 32

// DefaultSendGapMillis is the pause between emitted lines.
const DefaultSendGapMillis = 500

// Option configures a Pipeline.
type Option = options.Option[*Pipeline]

// WithTickSource sets the tick source used to pace emissions.
func WithTickSource(src tick.Source) Option {
	return options.NoError(func(p *Pipeline) {
		p.ticks = src
	})
}

// WithSendGap sets the minimum gap between emitted lines in milliseconds.
func WithSendGap(ms uint32) Option {
	return options.NoError(func(p *Pipeline) {
		p.gap = ms
	})
}

// WithTokenCapacity sets the size of the pipeline-owned token array.
func WithTokenCapacity(n int) Option {
	return options.New(func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("token capacity %d too small", n)
		}
		p.tokens = make([]jsontok.Token, n)

		return nil
	})
}

// WithLogger sets the structured logger for cycle diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return options.NoError(func(p *Pipeline) {
		p.log = log
	})
}

// WithCapture attaches a capture sink that records every emitted line.
func WithCapture(sink *capture.Sink) Option {
	return options.NoError(func(p *Pipeline) {
		p.sink = sink
	})
}

// Pipeline walks tokenizer output and feeds the transport driver.
//
// A Pipeline is single-goroutine: the same main line of execution that owns
// the tokenizer. Only the driver it holds is touched by the interrupt
// dispatcher.
type Pipeline struct {
	drv    *uart.Driver
	ticks  tick.Source
	gap    uint32
	log    zerolog.Logger
	sink   *capture.Sink
	labels map[uint64]string

	parser *jsontok.Parser
	tokens []jsontok.Token
	src    []byte

	parsed  bool
	cycle   error // terminal diagnostic for the current cycle
	total   int   // token count from the parse
	cursor  int   // next root-level token to consume
	queue   [][]byte
	done    bool
	lastTx  uint32
	sentAny bool
}

// New creates a pipeline that emits through drv.
func New(drv *uart.Driver, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		drv:    drv,
		gap:    DefaultSendGapMillis,
		log:    zerolog.Nop(),
		labels: make(map[uint64]string),
		parser: jsontok.NewParser(),
	}

	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	if p.ticks == nil {
		p.ticks = tick.System()
	}
	if p.tokens == nil {
		p.tokens = make([]jsontok.Token, DefaultTokenCapacity)
	}

	return p, nil
}

// RegisterField maps a root-object key to its output label. A registered
// scalar field emits "- <label>: <value>"; a registered array field emits a
// "- <label>:" header followed by one "  * <element>" line per element.
// Unregistered keys emit an "Unexpected key" line.
func (p *Pipeline) RegisterField(key, label string) {
	p.labels[hash.FieldIDString(key)] = label
}

// SetSource starts a new cycle over src. The buffer must stay alive and
// unmodified until the cycle finishes; the tokens the walk produces are
// views into it.
func (p *Pipeline) SetSource(src []byte) {
	p.src = src
	p.parser.Reset()
	p.parsed = false
	p.cycle = nil
	p.total = 0
	p.cursor = 0
	p.queue = p.queue[:0]
	p.done = false
}

// Done reports whether the current cycle has emitted everything it will.
// The final line may still be draining; callers that need the wire flushed
// wait for the driver's transmit half to return to idle.
func (p *Pipeline) Done() bool {
	return p.done && len(p.queue) == 0
}

// Err returns the terminal diagnostic of the current cycle, if any: a parse
// failure or ErrRootNotObject. The corresponding message line has already
// been queued for emission when Err is non-nil.
func (p *Pipeline) Err() error {
	return p.cycle
}

// Step makes at most one unit of progress: it formats the next field if the
// line queue is empty, and emits one queued line if the transmitter is idle
// and the send gap has elapsed. It returns true when a line was handed to
// the driver.
//
// Step never blocks and never spins; when it returns false the caller
// should service the interrupt dispatcher and try again.
func (p *Pipeline) Step() (bool, error) {
	if p.Done() {
		return false, nil
	}

	if len(p.queue) == 0 {
		p.advance()
	}
	if len(p.queue) == 0 {
		return false, nil
	}

	if p.drv.TxState() != uart.StateIdle {
		return false, nil
	}
	if p.sentAny && !tick.Elapsed(p.ticks, p.lastTx, p.gap) {
		return false, nil
	}

	line := p.queue[0]
	if err := p.drv.Send(line); err != nil {
		if errors.Is(err, errs.ErrTxBusy) {
			return false, nil
		}

		return false, fmt.Errorf("emit line: %w", err)
	}

	p.queue = p.queue[1:]
	p.lastTx = tick.Start(p.ticks)
	p.sentAny = true

	if p.sink != nil {
		p.sink.Record(capture.DirTx, p.lastTx, line)
	}
	p.log.Debug().Bytes("line", line).Msg("line emitted")

	return true, nil
}

// Run drives the cycle to completion, invoking idle whenever no progress
// could be made (typically to service the dispatcher and yield). It returns
// the cycle's terminal diagnostic, if any.
func (p *Pipeline) Run(idle func()) error {
	for !p.Done() {
		sent, err := p.Step()
		if err != nil {
			return err
		}
		if !sent && idle != nil {
			idle()
		}
	}

	return p.Err()
}

// advance parses on the first call of a cycle, then consumes one root-level
// field per call, queueing its formatted output lines.
func (p *Pipeline) advance() {
	if !p.parsed {
		p.parse()
		return
	}

	if p.cursor >= p.total {
		p.done = true
		return
	}

	key := p.tokens[p.cursor]
	label, known := p.fieldLabel(key)
	if !known {
		p.enqueuef("Unexpected key: %s\r\n", key.Bytes(p.src))
		p.cursor++

		return
	}

	if p.cursor+1 >= p.total {
		// Key with no value slot: emit the header alone.
		p.enqueuef("- %s:\r\n", label)
		p.cursor++

		return
	}

	value := p.tokens[p.cursor+1]
	if value.Kind == jsontok.KindArray {
		p.enqueuef("- %s:\r\n", label)
		for i := 0; i < int(value.Size); i++ {
			elem := p.tokens[p.cursor+2+i]
			p.enqueuef("  * %s\r\n", elem.Bytes(p.src))
		}
		p.cursor += int(value.Size) + 2

		return
	}

	p.enqueuef("- %s: %s\r\n", label, value.Bytes(p.src))
	p.cursor += 2
}

// parse runs the tokenizer once and queues a diagnostic line if the cycle
// cannot proceed.
func (p *Pipeline) parse() {
	p.parsed = true

	n, err := p.parser.Parse(p.src, p.tokens)
	if err != nil {
		p.cycle = err
		p.done = true
		p.enqueuef("Failed to parse JSON: %d\r\n", jsontok.Code(err))
		p.log.Warn().Err(err).Msg("parse failed")

		return
	}

	if n < 1 || p.tokens[0].Kind != jsontok.KindObject {
		p.cycle = ErrRootNotObject
		p.done = true
		p.enqueuef("Object expected\r\n")
		p.log.Warn().Msg("root element is not an object")

		return
	}

	p.total = n
	p.cursor = 1
	p.log.Debug().Int("tokens", n).Msg("source tokenized")
}

// fieldLabel resolves a key token against the registered fields.
func (p *Pipeline) fieldLabel(key jsontok.Token) (string, bool) {
	if key.Kind != jsontok.KindString {
		return "", false
	}

	label, ok := p.labels[hash.FieldID(key.Bytes(p.src))]

	return label, ok
}

func (p *Pipeline) enqueuef(format string, args ...any) {
	p.queue = append(p.queue, fmt.Appendf(nil, format, args...))
}
