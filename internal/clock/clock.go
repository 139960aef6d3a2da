// Package clock provides the free running millisecond counter used for
// debounce timing. The counter is 32 bits wide and wraps; always compare
// timestamps with Since, never with < or >.
package clock

import "time"

// Millis is a millisecond timestamp from a free running counter.
type Millis uint32

// Clock returns the current counter value.
type Clock interface {
	Now() Millis
}

// Since returns the time elapsed from then to now.
// Unsigned subtraction keeps the result correct across a counter wrap.
func Since(now, then Millis) Millis {
	return now - then
}

// FromDuration converts d to whole milliseconds.
func FromDuration(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// Duration converts m to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Wall derives the counter from time readings taken by the caller, such
// as the values delivered by a time.Ticker. Now returns the milliseconds
// between the start time and the last reading, truncated to 32 bits, so
// the counter wraps after roughly 49.7 days.
type Wall struct {
	start time.Time
	last  time.Time
}

// NewWall creates a Wall reading zero at start.
func NewWall(start time.Time) *Wall {
	return &Wall{start: start, last: start}
}

// Observe records t as the current time.
func (w *Wall) Observe(t time.Time) {
	w.last = t
}

// Now returns the counter value at the last observed time.
func (w *Wall) Now() Millis {
	return Millis(uint64(w.last.Sub(w.start) / time.Millisecond))
}
