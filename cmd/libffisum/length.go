package main

import "math"

// maxFloats is the longest float64 array addressable on this target.
// On 32-bit targets it is far below the int64 lengths C callers can pass.
const maxFloats = math.MaxInt / 8

// sliceLen validates a C array length. Non-positive lengths and lengths the
// target cannot address yield ok == false, which callers treat as the
// empty sequence.
func sliceLen(length int64) (n int, ok bool) {
	if length <= 0 || uint64(length) > maxFloats {
		return 0, false
	}
	return int(length), true
}
