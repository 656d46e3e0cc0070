package harness

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/roach88/ffibench/internal/ir"
	"github.com/roach88/ffibench/internal/store"
)

// decimalNanos matches a base-10 integer with no sign and no leading zeros.
var decimalNanos = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventInvocation:
				fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.EntryPoint, formatValue(event.Args))
			case EventCompletion:
				if event.Outcome == ir.OutcomeOK {
					fmt.Fprintf(&buf, "  [%d]   -> %s\n", event.Seq, formatValue(event.Result))
				} else {
					fmt.Fprintf(&buf, "  [%d]   -> %s: %s\n", event.Seq, event.Outcome, event.Error)
				}
			}
		}
	}

	return buf.String()
}

// completionFor returns the completion paired with the invocation at index i.
func completionFor(trace []TraceEvent, i int) (TraceEvent, bool) {
	if i+1 < len(trace) && trace[i+1].Type == EventCompletion && trace[i+1].Seq == trace[i].Seq {
		return trace[i+1], true
	}
	return TraceEvent{}, false
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified entry point and args (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	expected, err := convertArgsToIRObject(assertion.Args)
	if err != nil {
		return fmt.Errorf("trace_contains: invalid args: %w", err)
	}

	for i, event := range trace {
		if event.Type != EventInvocation || event.EntryPoint != assertion.EntryPoint {
			continue
		}
		if !matchValue(event.Args, expected) {
			continue
		}
		if assertion.Outcome != "" {
			comp, ok := completionFor(trace, i)
			if !ok || comp.Outcome != assertion.Outcome {
				continue
			}
		}
		return nil
	}

	want := fmt.Sprintf("call %s with args %s", assertion.EntryPoint, formatValue(expected))
	if assertion.Outcome != "" {
		want += " and outcome " + assertion.Outcome
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if entry points are first called in the specified
// order. Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	// Find first position of each expected entry point
	positions := make(map[string]int)

	for i, event := range trace {
		if event.Type == EventInvocation && positions[event.EntryPoint] == 0 {
			positions[event.EntryPoint] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range assertion.EntryPoints {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all entry points present: %v", assertion.EntryPoints),
				Actual:   fmt.Sprintf("missing entry point: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.EntryPoints); i++ {
		prev := assertion.EntryPoints[i-1]
		curr := assertion.EntryPoints[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("entry points in order: %v", assertion.EntryPoints),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the entry point is called exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventInvocation && event.EntryPoint == assertion.EntryPoint {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls to %s", assertion.Count, assertion.EntryPoint),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertNanosFormat checks that every successful timed result in the trace
// carries its nanos as a decimal string. With an entry point set, at least
// one such result must exist.
func assertNanosFormat(trace []TraceEvent, assertion Assertion) error {
	found := 0
	for _, event := range trace {
		if event.Type != EventCompletion || event.Outcome != ir.OutcomeOK {
			continue
		}
		if assertion.EntryPoint != "" && event.EntryPoint != assertion.EntryPoint {
			continue
		}
		obj, ok := event.Result.(ir.IRObject)
		if !ok {
			continue
		}
		nanos, present := obj["nanos"]
		if !present {
			continue
		}
		found++

		s, ok := nanos.(ir.IRString)
		if !ok || !decimalNanos.MatchString(string(s)) {
			return &AssertionError{
				Type:     AssertNanosFormat,
				Expected: "nanos as a base-10 string with no sign or leading zeros",
				Actual:   fmt.Sprintf("seq %d %s returned nanos %s", event.Seq, event.EntryPoint, formatValue(nanos)),
				Trace:    trace,
			}
		}
	}

	if assertion.EntryPoint != "" && found == 0 {
		return &AssertionError{
			Type:     AssertNanosFormat,
			Expected: fmt.Sprintf("at least one timed result from %s", assertion.EntryPoint),
			Actual:   "none found",
			Trace:    trace,
		}
	}
	return nil
}

// assertStoredCalls checks how many calls the store recorded.
func assertStoredCalls(ctx context.Context, st *store.Store, assertion Assertion) error {
	count, err := st.CountCalls(ctx, assertion.EntryPoint)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredCalls,
			Expected: "count stored calls",
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	if count != int64(assertion.Count) {
		scope := "calls"
		if assertion.EntryPoint != "" {
			scope = "calls to " + assertion.EntryPoint
		}
		return &AssertionError{
			Type:     AssertStoredCalls,
			Expected: fmt.Sprintf("%d stored %s", assertion.Count, scope),
			Actual:   fmt.Sprintf("%d stored", count),
		}
	}
	return nil
}

// matchValue reports whether actual matches expected.
//
// Numbers compare by value, so IRInt(3) matches IRFloat(3); two IRInts
// compare exactly. An expected NaN matches any NaN. Objects are
// subset matches: keys absent from expected are ignored. Arrays must have
// the same length and match element-wise.
func matchValue(actual, expected ir.IRValue) bool {
	switch exp := expected.(type) {
	case ir.IRInt:
		if act, ok := actual.(ir.IRInt); ok {
			return act == exp
		}
		a, ok := numberOf(actual)
		e, _ := numberOf(exp)
		return ok && a == e
	case ir.IRFloat:
		a, ok := numberOf(actual)
		e, _ := numberOf(exp)
		if math.IsNaN(e) {
			return ok && math.IsNaN(a)
		}
		return ok && a == e
	case ir.IRObject:
		act, ok := actual.(ir.IRObject)
		if !ok {
			return false
		}
		for k, v := range exp {
			av, exists := act[k]
			if !exists || !matchValue(av, v) {
				return false
			}
		}
		return true
	case ir.IRArray:
		act, ok := actual.(ir.IRArray)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchValue(act[i], exp[i]) {
				return false
			}
		}
		return true
	case nil:
		return actual == nil
	default:
		return actual == expected
	}
}

// numberOf returns v as a float64 when it is a number.
func numberOf(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRInt:
		return float64(n), true
	case ir.IRFloat:
		return float64(n), true
	default:
		return 0, false
	}
}

// formatValue renders an IRValue as JSON for messages.
func formatValue(v ir.IRValue) string {
	if v == nil {
		return "<none>"
	}
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for stored_calls assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertNanosFormat:
			err = assertNanosFormat(result.Trace, assertion)
		case AssertStoredCalls:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored_calls requires database context", i)
			} else {
				err = assertStoredCalls(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
