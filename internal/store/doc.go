// Package store provides SQLite-backed durable storage for boundary call
// records and benchmark runs.
//
// The store is an append-only log with two tables:
//   - calls: one row per boundary call, including failed conversions
//   - bench_runs: one canonical report per benchmark run
//
// # Ordering
//
// Call queries order by the logical clock, never by wall time:
//
//	ORDER BY seq ASC, id ASC COLLATE BINARY
//
// so the same flow always reads back in the same order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Args and results are stored as RFC 8785 canonical JSON produced by
// internal/ir, so a stored record hashes to the same call ID it was
// written with.
package store
