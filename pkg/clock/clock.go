// Package clock provides the "now" source used by report plugins and the stats
// aggregator. Production code uses Real; tests pin time with Fixed.
package clock

import "time"

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// Real is the wall clock (UTC)
type Real struct{}

// Now returns time.Now in UTC
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts a plain function to the Clock interface
type Func func() time.Time

// Now calls the wrapped function
func (f Func) Now() time.Time {
	return f()
}

// OrReal returns c, or Real when c is nil
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
