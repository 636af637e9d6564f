package clock

import "time"

// Clock abstracts time so grace, late and default boundaries can be
// tested deterministically. Production code uses System; tests use Fixed.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a clock pinned to a settable instant.
type Fixed struct {
	Current time.Time
}

// NewFixed creates a fixed clock at the given instant.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{Current: t}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.Current
}

// Advance moves the pinned instant forward.
func (f *Fixed) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
