// Package clock provides ports.Clock implementations: a real wall-clock
// adapter for production and a manually-advanced fake for deterministic
// tests of interval/timeout math.
package clock

import "time"

// Real implements ports.Clock over the standard library's time package.
type Real struct{}

// New constructs a Real clock.
func New() Real { return Real{} }

func (Real) Now() int64 { return time.Now().Unix() }

func (Real) Monotonic() int64 { return time.Now().UnixNano() }

func (Real) Sleep(nanos int64) { time.Sleep(time.Duration(nanos)) }

// Fake is a manually-advanced ports.Clock for tests that need
// deterministic interval math without real sleeps.
type Fake struct {
	wall int64
	mono int64
}

// NewFake constructs a Fake clock starting at the given wall-clock seconds
// and monotonic nanoseconds.
func NewFake(wallSeconds, monotonicNanos int64) *Fake {
	return &Fake{wall: wallSeconds, mono: monotonicNanos}
}

func (f *Fake) Now() int64 { return f.wall }

func (f *Fake) Monotonic() int64 { return f.mono }

// Sleep advances the fake clock by nanos instead of blocking.
func (f *Fake) Sleep(nanos int64) {
	f.mono += nanos
	f.wall += nanos / int64(time.Second)
}

// Advance moves both components forward by d, for tests driving a
// scenario across multiple probe intervals.
func (f *Fake) Advance(d time.Duration) {
	f.mono += int64(d)
	f.wall += int64(d / time.Second)
}
