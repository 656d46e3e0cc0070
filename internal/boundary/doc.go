// Package boundary implements the three native operations exposed to host
// runtimes: integer addition, float sequence summation, and float sequence
// summation with a measured duration.
//
// Every function is pure and touches no shared state, so concurrent calls
// from any number of goroutines need no coordination. Argument conversion
// from host values happens before these functions run (see package convert);
// nothing here validates input.
//
// Numeric semantics are native:
//   - SumAsI64 wraps on overflow
//   - float sums accumulate strictly left to right from 0.0, so NaN and Inf
//     propagate and the low bits follow input order
//
// The timed variant reports its elapsed time as a base-10 string. Host
// runtimes whose only number type is float64 cannot hold every nanosecond
// count exactly; callers parse the string with arbitrary precision instead.
package boundary
