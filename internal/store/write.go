package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ffibench/internal/ir"
)

// WriteCall inserts a call record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., the outcome CHECK) still return errors.
//
// Args and Result are serialized to canonical JSON per RFC 8785. Non-finite
// floats are stored in their ir.NonFiniteKey form and read back unchanged.
//
// WriteCall satisfies engine.Recorder.
func (s *Store) WriteCall(ctx context.Context, rec ir.CallRecord) error {
	argsJSON, err := marshalArgs(rec.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	resultJSON, err := marshalResult(rec.Result)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, flow_token, entry_point, args, seq, outcome, result, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.FlowToken,
		rec.EntryPoint,
		argsJSON,
		rec.Seq,
		rec.Outcome,
		resultJSON,
		rec.Error,
		rec.EngineVersion,
		rec.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	return nil
}

// WriteBenchRun inserts a benchmark run and returns it with Seq and Digest
// filled in. Report must be a JSON object; it is re-encoded canonically
// before hashing and storage so equal reports always share a digest.
//
// Unlike WriteCall, a duplicate run ID is an error: run IDs are random and
// a collision means the caller reused one.
func (s *Store) WriteBenchRun(ctx context.Context, run ir.BenchRun) (ir.BenchRun, error) {
	if run.ID == "" {
		return ir.BenchRun{}, errors.New("write bench run: id is required")
	}
	if !isDecimal(run.InternalNanos) {
		return ir.BenchRun{}, fmt.Errorf("write bench run: internal nanos %q is not a decimal integer", run.InternalNanos)
	}

	var report ir.IRObject
	if err := report.UnmarshalJSON(run.Report); err != nil {
		return ir.BenchRun{}, fmt.Errorf("write bench run: report: %w", err)
	}
	canonical, err := ir.MarshalCanonical(report)
	if err != nil {
		return ir.BenchRun{}, fmt.Errorf("write bench run: report: %w", err)
	}
	run.Report = canonical
	run.Digest = ir.ReportDigest(canonical)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO bench_runs (id, label, digest, internal_ns, report)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Label,
		run.Digest,
		run.InternalNanos,
		string(run.Report),
	)
	if err != nil {
		return ir.BenchRun{}, fmt.Errorf("write bench run: %w", err)
	}

	run.Seq, err = result.LastInsertId()
	if err != nil {
		return ir.BenchRun{}, fmt.Errorf("write bench run: last insert id: %w", err)
	}
	return run, nil
}

// isDecimal reports whether s is a non-negative base-10 integer with no
// sign and no leading zeros.
func isDecimal(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
