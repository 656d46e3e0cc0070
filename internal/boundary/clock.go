package boundary

import "time"

// Clock supplies instants for interval measurement.
//
// Implementations must be monotonic: a later call never returns an earlier
// instant. MonotonicClock satisfies this through the monotonic reading Go
// attaches to every time.Now value; Time.Sub prefers that reading over the
// wall clock, so wall-clock adjustments never affect a measured interval.
type Clock interface {
	Now() time.Time
}

// MonotonicClock is the production Clock.
//
// Thread-safety: MonotonicClock is stateless and safe for concurrent use.
type MonotonicClock struct{}

// Now returns the current time including its monotonic clock reading.
func (MonotonicClock) Now() time.Time {
	return time.Now()
}
