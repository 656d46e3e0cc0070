// Package bench measures what crossing the boundary costs.
//
// A run has three scenarios:
//
//   - A: sumAsI64(10, 20) called directly and through the dispatcher,
//     reported as a slowdown factor.
//   - B: a float sequence summed directly and through the dispatcher,
//     reported as a speedup or slowdown.
//   - C: sumListOfFloatsWithTiming through the dispatcher. The caller's
//     total time is split into the native time each call reports and the
//     remaining boundary overhead.
//
// "Directly" means calling the boundary package with native Go values.
// "Through the dispatcher" means every call pays for host value conversion,
// signature checks, and result conversion, which is the cost a host
// runtime sees.
//
// Per-call nanos arrive as decimal strings and are summed with math/big,
// so the internal total is exact however long the run.
package bench
