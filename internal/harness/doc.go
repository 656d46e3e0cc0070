// Package harness provides conformance testing for the boundary call surface.
//
// The harness runs YAML call scenarios against the real dispatcher and checks
// what came back, what was traced, and what was stored.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	surface: surface.cue        # optional; defaults to the built-in surface
//	flow_token: fixed-token     # optional
//	flow:
//	  - invoke: sumAsI64
//	    args: { a: 2, b: 3 }
//	    expect:
//	      case: ok
//	      result: 5
//	  - invoke: sumAsI64
//	    args: { a: "2", b: 3 }
//	    expect:
//	      case: conversion_error
//	      error: "a: cannot convert string to i64"
//	assertions:
//	  - type: trace_contains
//	    entry_point: sumAsI64
//	    args: { a: 2 }
//	  - type: stored_calls
//	    count: 2
//
// # Assertion Types
//
//   - trace_contains: A call to entry_point with matching args (subset) was made
//   - trace_order: entry_points were first called in the given order
//   - trace_count: entry_point was called exactly count times
//   - nanos_format: Every timed result carries a decimal nanos string
//   - stored_calls: The store holds exactly count calls (optionally per entry_point)
//
// # Deterministic Testing
//
// Every scenario runs with:
//   - A fixed flow token (scenario.flow_token or testutil.DefaultFlowToken)
//   - A deterministic logical clock (testutil.DeterministicClock)
//   - A step monotonic clock, so every timed call reports TimingStep
//   - An in-memory SQLite store (isolated per run)
//
// so the same scenario always produces a byte-identical trace for golden
// file comparison.
package harness
