package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokenline/tokenline/capture"
	"github.com/tokenline/tokenline/errs"
	"github.com/tokenline/tokenline/tick"
	"github.com/tokenline/tokenline/uart"
)

const testGap = 500

type fixture struct {
	drv   *uart.Driver
	port  *uart.SimPort
	ticks *tick.Manual
	pl    *Pipeline
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	port := uart.NewSimPort()
	drv, err := uart.NewDriver(port)
	require.NoError(t, err)
	require.NoError(t, drv.Init())

	ticks := tick.NewManual(0)
	opts = append([]Option{
		WithTickSource(ticks),
		WithSendGap(testGap),
	}, opts...)

	pl, err := New(drv, opts...)
	require.NoError(t, err)

	pl.RegisterField("user", "User")
	pl.RegisterField("admin", "Admin")
	pl.RegisterField("uid", "UID")
	pl.RegisterField("groups", "Groups")

	return &fixture{drv: drv, port: port, ticks: ticks, pl: pl}
}

// runCycle drives the pipeline to completion, servicing interrupts and
// advancing the manual clock whenever no progress is made, then drains the
// transmitter.
func (f *fixture) runCycle(t *testing.T) error {
	t.Helper()

	for i := 0; !f.pl.Done(); i++ {
		require.Less(t, i, 10000, "cycle did not finish")

		sent, err := f.pl.Step()
		require.NoError(t, err)
		if sent {
			continue
		}

		if f.port.Pending() {
			f.drv.ServiceInterrupt()
		} else {
			f.ticks.Advance(testGap)
		}
	}

	for f.drv.TxState() != uart.StateIdle {
		f.drv.ServiceInterrupt()
	}

	return f.pl.Err()
}

func TestCycleEmitsAllFields(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"user":"johndoe","admin":false,"uid":1000,"groups":["users","wheel"]}`))

	require.NoError(t, f.runCycle(t))

	want := "- User: johndoe\r\n" +
		"- Admin: false\r\n" +
		"- UID: 1000\r\n" +
		"- Groups:\r\n" +
		"  * users\r\n" +
		"  * wheel\r\n"
	require.Equal(t, want, string(f.port.Sent()))
}

func TestCycleUnknownKey(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"user":"johndoe","color":"red"}`))

	require.NoError(t, f.runCycle(t))

	// "color" is unregistered: its key line is emitted and the cursor moves
	// one token, so the orphaned value is reported as unexpected too.
	require.Equal(t,
		"- User: johndoe\r\nUnexpected key: color\r\nUnexpected key: red\r\n",
		string(f.port.Sent()))
}

func TestCycleParseFailure(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"user": "johndoe"`))

	err := f.runCycle(t)
	require.ErrorIs(t, err, errs.ErrPartialJSON)
	require.Equal(t, "Failed to parse JSON: -3\r\n", string(f.port.Sent()))
}

func TestCycleRootNotObject(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`[1,2,3]`))

	err := f.runCycle(t)
	require.ErrorIs(t, err, ErrRootNotObject)
	require.Equal(t, "Object expected\r\n", string(f.port.Sent()))
}

func TestCycleTokenCapacityDiagnostic(t *testing.T) {
	f := newFixture(t, WithTokenCapacity(2))
	f.pl.SetSource([]byte(`{"user":"johndoe","admin":false}`))

	err := f.runCycle(t)
	require.ErrorIs(t, err, errs.ErrTokensExhausted)
	require.Equal(t, "Failed to parse JSON: -2\r\n", string(f.port.Sent()))
}

func TestStepPacing(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"user":"johndoe","uid":1000}`))

	// First step only parses; second emits the first line.
	sent, err := f.pl.Step()
	require.NoError(t, err)
	require.False(t, sent)

	sent, err = f.pl.Step()
	require.NoError(t, err)
	require.True(t, sent)

	// Transmitter busy: no emission regardless of the clock.
	sent, err = f.pl.Step()
	require.NoError(t, err)
	require.False(t, sent)

	for f.drv.TxState() != uart.StateIdle {
		f.drv.ServiceInterrupt()
	}

	// Idle but inside the send gap: still held back.
	sent, err = f.pl.Step()
	require.NoError(t, err)
	require.False(t, sent)

	f.ticks.Advance(testGap - 1)
	sent, err = f.pl.Step()
	require.NoError(t, err)
	require.False(t, sent)

	f.ticks.Advance(1)
	sent, err = f.pl.Step()
	require.NoError(t, err)
	require.True(t, sent)
}

func TestStepNeverCallsSendWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"uid":1}`))

	// Occupy the transmitter out of band; the pipeline must hold its line
	// until the driver drains.
	require.NoError(t, f.drv.Send([]byte("occupied\r\n")))

	_, err := f.pl.Step() // parse
	require.NoError(t, err)

	sent, err := f.pl.Step()
	require.NoError(t, err)
	require.False(t, sent)

	require.NoError(t, f.runCycle(t))
	require.Equal(t, "occupied\r\n- UID: 1\r\n", string(f.port.Sent()))
}

func TestCaptureRecordsEmittedLines(t *testing.T) {
	sink := capture.NewSink()
	f := newFixture(t, WithCapture(sink))
	f.pl.SetSource([]byte(`{"user":"johndoe","uid":1000}`))

	require.NoError(t, f.runCycle(t))

	require.Equal(t, 2, sink.Len())
	recs := sink.Records()
	require.Equal(t, capture.DirTx, recs[0].Dir)
	require.Equal(t, "- User: johndoe\r\n", string(recs[0].Data))
	require.Equal(t, "- UID: 1000\r\n", string(recs[1].Data))
	require.GreaterOrEqual(t, recs[1].Tick, recs[0].Tick+testGap)
}

func TestReceivedLineFeedsNextCycle(t *testing.T) {
	f := newFixture(t)

	// A remote peer sends a JSON line; once reception completes the buffer
	// becomes the next cycle's source.
	require.NoError(t, f.drv.Receive())
	f.port.QueueLine(`{"uid":42}`)
	for f.drv.RxState() != uart.StateIdle {
		f.drv.ServiceInterrupt()
	}

	f.pl.SetSource(f.drv.Line())
	require.NoError(t, f.runCycle(t))
	require.Equal(t, "- UID: 42\r\n", string(f.port.Sent()))
}

func TestRunDrivesCycle(t *testing.T) {
	f := newFixture(t)
	f.pl.SetSource([]byte(`{"admin":true}`))

	err := f.pl.Run(func() {
		if f.port.Pending() {
			f.drv.ServiceInterrupt()
		} else {
			f.ticks.Advance(testGap)
		}
	})
	require.NoError(t, err)

	for f.drv.TxState() != uart.StateIdle {
		f.drv.ServiceInterrupt()
	}
	require.Equal(t, "- Admin: true\r\n", string(f.port.Sent()))
}
