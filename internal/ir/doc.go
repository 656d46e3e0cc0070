// Package ir provides the host value representation used on the call boundary.
//
// Host runtimes hand the boundary loosely typed values (numbers, strings,
// arrays, objects). ir models those values as a sealed IRValue interface,
// decodes them from JSON, and produces RFC 8785 canonical JSON for
// content-addressed call identity.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key constraints:
//   - Integers are int64, floats are float64; a JSON number decodes as IRInt
//     only when it has no fraction or exponent and fits in int64
//   - NaN and Inf have no JSON number form and travel as {"$float": token}
//   - All JSON tags use snake_case
//   - Logical clocks (seq) order calls, never wall-clock timestamps
package ir
