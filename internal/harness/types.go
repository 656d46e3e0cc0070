package harness

import "github.com/roach88/ffibench/internal/ir"

// Trace event types.
const (
	EventInvocation = "invocation"
	EventCompletion = "completion"
)

// TraceEvent is one half of a boundary call in the trace.
// An invocation and its completion share a seq.
type TraceEvent struct {
	Type       string      `json:"type"` // "invocation" or "completion"
	EntryPoint string      `json:"entry_point"`
	Args       ir.IRObject `json:"args,omitempty"`
	Outcome    string      `json:"outcome,omitempty"`
	Result     ir.IRValue  `json:"result,omitempty"`
	Error      string      `json:"error,omitempty"`
	Seq        int64       `json:"seq"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every invocation and completion in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCall adds the invocation and completion of one call to the trace.
func (r *Result) AddCall(rec ir.CallRecord) {
	r.Trace = append(r.Trace,
		TraceEvent{
			Type:       EventInvocation,
			EntryPoint: rec.EntryPoint,
			Args:       rec.Args,
			Seq:        rec.Seq,
		},
		TraceEvent{
			Type:       EventCompletion,
			EntryPoint: rec.EntryPoint,
			Outcome:    rec.Outcome,
			Result:     rec.Result,
			Error:      rec.Error,
			Seq:        rec.Seq,
		},
	)
}
