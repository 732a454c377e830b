// Package clock supplies millisecond timestamps for the gesture pipeline.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in milliseconds. Values never decrease.
type Clock interface {
	NowMs() int64
}

// Monotonic measures elapsed milliseconds since it was created, using the
// runtime's monotonic clock reading so wall-clock changes do not affect it.
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a clock at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// NowMs returns milliseconds since the clock was created.
func (m *Monotonic) NowMs() int64 {
	return time.Since(m.start).Milliseconds()
}

// Manual is a clock advanced by hand, for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual returns a manual clock set to startMs.
func NewManual(startMs int64) *Manual {
	return &Manual{now: startMs}
}

// NowMs returns the current manual time.
func (m *Manual) NowMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d milliseconds. Negative values are ignored.
func (m *Manual) Advance(d int64) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += d
}

// Set moves the clock to ms if that is not earlier than the current time.
func (m *Manual) Set(ms int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms > m.now {
		m.now = ms
	}
}
