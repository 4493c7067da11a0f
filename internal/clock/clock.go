// Package clock abstracts time.Now() to allow deterministic testing of
// date-sensitive logic.
package clock

import "time"

// Clock returns the current time. The reminder agent and the schedule
// service take a Clock so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the standard time package.
type Real struct{}

// Now returns the current local time.
func (Real) Now() time.Time {
	return time.Now()
}
