package boundary

import (
	"strconv"
	"time"
)

// TimingResult is the record returned by SumListOfFloatsWithTiming.
type TimingResult struct {
	// Result is the left-to-right sum of the input.
	Result float64 `json:"result"`

	// Nanos is the elapsed duration of the summation in nanoseconds,
	// as an unsigned base-10 numeral ("0" for a zero duration).
	Nanos string `json:"nanos"`
}

// SumAsI64 returns a + b with native two's complement wraparound.
func SumAsI64(a, b int64) int64 {
	return a + b
}

// SumListOfFloats returns the sum of data accumulated left to right.
// An empty or nil slice sums to 0.
func SumListOfFloats(data []float64) float64 {
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum
}

// SumListOfFloatsWithTiming sums data like SumListOfFloats and reports how
// long the accumulation took, measured on the monotonic clock.
func SumListOfFloatsWithTiming(data []float64) TimingResult {
	return SumListOfFloatsWithClock(MonotonicClock{}, data)
}

// SumListOfFloatsWithClock is SumListOfFloatsWithTiming with an explicit
// clock. The interval covers only the accumulation loop.
func SumListOfFloatsWithClock(clock Clock, data []float64) TimingResult {
	start := clock.Now()
	sum := SumListOfFloats(data)
	elapsed := clock.Now().Sub(start)

	return TimingResult{
		Result: sum,
		Nanos:  FormatNanos(elapsed),
	}
}

// FormatNanos encodes d as an unsigned decimal count of nanoseconds.
// Negative durations cannot come from a monotonic clock and encode as "0".
func FormatNanos(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatUint(uint64(d), 10)
}
