// Package system provides the wall-clock implementation of ecfr.Clock.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New returns a system clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return time.Now()
}
