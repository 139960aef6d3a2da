package clock

// FakeClock is a manually driven Clock for tests.
type FakeClock struct {
	T Millis
}

// NewFakeClock creates a FakeClock at the given time.
func NewFakeClock(t Millis) *FakeClock {
	return &FakeClock{T: t}
}

// Now returns the current fake time.
func (f *FakeClock) Now() Millis {
	return f.T
}

// Set moves the clock to t.
func (f *FakeClock) Set(t Millis) {
	f.T = t
}

// Advance moves the clock forward by d, wrapping like the real counter.
func (f *FakeClock) Advance(d Millis) {
	f.T += d
}
