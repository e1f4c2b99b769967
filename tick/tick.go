// Package tick provides a monotonically increasing millisecond tick counter
// and a wraparound-correct "has this duration elapsed" predicate. It is the
// pacing primitive the pipeline uses to avoid tight busy loops while waiting
// for the transmitter to drain; nothing in this module blocks on it.
package tick

import "time"

// Source yields a millisecond tick count that increases monotonically and
// wraps at 2^32 (roughly every 49 days).
type Source interface {
	Now() uint32
}

// Elapsed reports whether at least d milliseconds have passed on s since
// start. Unsigned subtraction keeps the comparison correct across the
// 32-bit wrap.
func Elapsed(s Source, start, d uint32) bool {
	return s.Now()-start >= d
}

// Start returns the current tick for a later Elapsed check.
func Start(s Source) uint32 {
	return s.Now()
}

// system derives ticks from the runtime's monotonic clock.
type system struct {
	epoch time.Time
}

// System returns a Source backed by the runtime's monotonic clock.
func System() Source {
	return &system{epoch: time.Now()}
}

func (s *system) Now() uint32 {
	return uint32(time.Since(s.epoch).Milliseconds())
}

// Manual is a hand-advanced Source for tests and simulations.
type Manual struct {
	ms uint32
}

// NewManual creates a manual source starting at tick ms.
func NewManual(ms uint32) *Manual {
	return &Manual{ms: ms}
}

// Now implements Source.
func (m *Manual) Now() uint32 {
	return m.ms
}

// Advance moves the manual clock forward by d milliseconds.
func (m *Manual) Advance(d uint32) {
	m.ms += d
}
