package bench

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/roach88/ffibench/internal/ir"
)

// Report is the outcome of one run. All durations are integer nanoseconds;
// InternalNanos and OverheadNanos are decimal strings because they are
// derived from arbitrary-precision sums.
type Report struct {
	ID       string     `json:"id"`
	Config   Config     `json:"config"`
	Simple   Comparison `json:"simple"`
	Sequence Comparison `json:"sequence"`
	Split    Split      `json:"split"`
}

// Comparison times the same work done directly and through the dispatcher.
type Comparison struct {
	Calls         int   `json:"calls"`
	DirectNanos   int64 `json:"direct_ns"`
	BoundaryNanos int64 `json:"boundary_ns"`
}

// Factor returns how many times slower (>1) or faster (<1) the boundary
// path was. It is zero when the direct path took no measurable time.
func (c Comparison) Factor() float64 {
	if c.DirectNanos == 0 {
		return 0
	}
	return float64(c.BoundaryNanos) / float64(c.DirectNanos)
}

// BoundaryFaster reports whether the boundary path beat the direct one.
func (c Comparison) BoundaryFaster() bool {
	return c.BoundaryNanos < c.DirectNanos
}

// Split divides the caller-measured time of scenario C.
type Split struct {
	Calls         int    `json:"calls"`
	Workers       int    `json:"workers"`
	TotalNanos    int64  `json:"total_ns"`
	InternalNanos string `json:"internal_ns"`
	OverheadNanos string `json:"overhead_ns"` // may be negative with Workers > 1
}

// newSplit computes the overhead from the wall total and the exact internal sum.
func newSplit(calls, workers int, total time.Duration, internal *big.Int) Split {
	overhead := new(big.Int).Sub(big.NewInt(total.Nanoseconds()), internal)
	return Split{
		Calls:         calls,
		Workers:       workers,
		TotalNanos:    total.Nanoseconds(),
		InternalNanos: internal.String(),
		OverheadNanos: overhead.String(),
	}
}

// TotalMillis returns the total in milliseconds.
func (s Split) TotalMillis() float64 {
	return float64(s.TotalNanos) / 1e6
}

// InternalMillis returns the internal time in milliseconds.
func (s Split) InternalMillis() float64 {
	return decimalMillis(s.InternalNanos)
}

// OverheadMillis returns the overhead in milliseconds.
func (s Split) OverheadMillis() float64 {
	return decimalMillis(s.OverheadNanos)
}

// decimalMillis converts a decimal nanosecond string to milliseconds.
// Malformed input yields zero; Split values are built by newSplit.
func decimalMillis(nanos string) float64 {
	r, ok := new(big.Rat).SetString(nanos)
	if !ok {
		return 0
	}
	f, _ := r.Quo(r, big.NewRat(1_000_000, 1)).Float64()
	return f
}

// Record converts the report into a storable benchmark run.
func (r *Report) Record() (ir.BenchRun, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return ir.BenchRun{}, fmt.Errorf("marshal report: %w", err)
	}
	return ir.BenchRun{
		ID:            r.ID,
		Label:         r.Config.Label,
		InternalNanos: r.Split.InternalNanos,
		Report:        data,
	}, nil
}

// ParseReport decodes a stored report.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
