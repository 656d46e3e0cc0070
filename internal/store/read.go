package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ffibench/internal/ir"
)

const callColumns = `id, flow_token, entry_point, args, seq, outcome, result, error, engine_version, ir_version`

// ReadCalls returns all calls for a flow token.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no records exist for the flow token.
func (s *Store) ReadCalls(ctx context.Context, flowToken string) ([]ir.CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE flow_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, flowToken)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []ir.CallRecord{}
	for rows.Next() {
		rec, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}

	return calls, nil
}

// ReadCall retrieves a single call by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (ir.CallRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+callColumns+`
		FROM calls
		WHERE id = ?
	`, id)

	return scanCall(row)
}

// CountCalls returns how many calls were recorded for entryPoint.
// An empty entryPoint counts every call.
func (s *Store) CountCalls(ctx context.Context, entryPoint string) (int64, error) {
	var (
		count int64
		err   error
	)
	if entryPoint == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calls`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calls WHERE entry_point = ?`, entryPoint).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count calls: %w", err)
	}
	return count, nil
}

// MaxSeq returns the highest recorded seq, or 0 for an empty store.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM calls`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}

// ListBenchRuns returns up to limit benchmark runs, newest first.
// A limit of zero or less returns every run.
func (s *Store) ListBenchRuns(ctx context.Context, limit int) ([]ir.BenchRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, label, digest, internal_ns, report
		FROM bench_runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query bench runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.BenchRun{}
	for rows.Next() {
		run, err := scanBenchRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bench runs: %w", err)
	}

	return runs, nil
}

// GetBenchRun retrieves a benchmark run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetBenchRun(ctx context.Context, id string) (ir.BenchRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, label, digest, internal_ns, report
		FROM bench_runs
		WHERE id = ?
	`, id)

	return scanBenchRun(row)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCall(sc scanner) (ir.CallRecord, error) {
	var (
		rec        ir.CallRecord
		argsJSON   string
		resultJSON sql.NullString
	)

	err := sc.Scan(
		&rec.ID,
		&rec.FlowToken,
		&rec.EntryPoint,
		&argsJSON,
		&rec.Seq,
		&rec.Outcome,
		&resultJSON,
		&rec.Error,
		&rec.EngineVersion,
		&rec.IRVersion,
	)
	if err == sql.ErrNoRows {
		return ir.CallRecord{}, err
	}
	if err != nil {
		return ir.CallRecord{}, fmt.Errorf("scan call: %w", err)
	}

	rec.Args, err = unmarshalArgs(argsJSON)
	if err != nil {
		return ir.CallRecord{}, fmt.Errorf("call %s: %w", rec.ID, err)
	}
	rec.Result, err = unmarshalResult(resultJSON)
	if err != nil {
		return ir.CallRecord{}, fmt.Errorf("call %s: %w", rec.ID, err)
	}

	return rec, nil
}

func scanBenchRun(sc scanner) (ir.BenchRun, error) {
	var (
		run    ir.BenchRun
		report string
	)

	err := sc.Scan(&run.Seq, &run.ID, &run.Label, &run.Digest, &run.InternalNanos, &report)
	if err == sql.ErrNoRows {
		return ir.BenchRun{}, err
	}
	if err != nil {
		return ir.BenchRun{}, fmt.Errorf("scan bench run: %w", err)
	}

	run.Report = []byte(report)
	return run, nil
}
