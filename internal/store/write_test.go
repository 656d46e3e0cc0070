package store

import (
	"context"
	"math"
	"testing"

	"github.com/roach88/ffibench/internal/ir"
)

func TestWriteCall_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := createTestCall("flow-1", 1, 2, 3)

	for i := 0; i < 3; i++ {
		if err := s.WriteCall(ctx, rec); err != nil {
			t.Fatalf("WriteCall() attempt %d failed: %v", i, err)
		}
	}

	count, err := s.CountCalls(ctx, "")
	if err != nil {
		t.Fatalf("CountCalls() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after duplicate writes, want 1", count)
	}
}

func TestWriteCall_FailedCallHasNoResult(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestCall("flow-1", 1, 0, 0)
	rec.Args = ir.IRObject{"a": ir.IRString("two")}
	rec.ID = ir.MustCallID(rec.FlowToken, rec.EntryPoint, rec.Args, rec.Seq)
	rec.Outcome = ir.OutcomeConversionError
	rec.Result = nil
	rec.Error = "a: cannot convert string to i64"

	if err := s.WriteCall(ctx, rec); err != nil {
		t.Fatalf("WriteCall() failed: %v", err)
	}

	var isNull bool
	if err := s.db.QueryRow("SELECT result IS NULL FROM calls WHERE id = ?", rec.ID).Scan(&isNull); err != nil {
		t.Fatalf("query result: %v", err)
	}
	if !isNull {
		t.Error("failed call stored a result")
	}
}

func TestWriteCall_RejectsUnknownOutcome(t *testing.T) {
	s := createTestStore(t)

	rec := createTestCall("flow-1", 1, 2, 3)
	rec.Outcome = "maybe"

	if err := s.WriteCall(context.Background(), rec); err == nil {
		t.Error("expected CHECK constraint error for unknown outcome")
	}
}

func TestWriteCall_NonFiniteRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	args := ir.IRObject{"data": ir.IRArray{ir.IRFloat(1e308), ir.IRFloat(math.NaN())}}
	rec := ir.CallRecord{
		ID:            ir.MustCallID("flow-1", "sumListOfFloats", args, 1),
		FlowToken:     "flow-1",
		EntryPoint:    "sumListOfFloats",
		Args:          args,
		Seq:           1,
		Outcome:       ir.OutcomeOK,
		Result:        ir.IRFloat(math.Inf(1)),
		EngineVersion: "0.1.0",
		IRVersion:     "1",
	}

	if err := s.WriteCall(ctx, rec); err != nil {
		t.Fatalf("WriteCall() failed: %v", err)
	}

	got, err := s.ReadCall(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ReadCall() failed: %v", err)
	}

	result, ok := got.Result.(ir.IRFloat)
	if !ok || !math.IsInf(float64(result), 1) {
		t.Errorf("Result = %#v, want +Inf", got.Result)
	}
	data, ok := got.Args["data"].(ir.IRArray)
	if !ok || len(data) != 2 {
		t.Fatalf("Args[data] = %#v, want two elements", got.Args["data"])
	}
	if f, ok := data[1].(ir.IRFloat); !ok || !math.IsNaN(float64(f)) {
		t.Errorf("Args[data][1] = %#v, want NaN", data[1])
	}
}

func TestWriteBenchRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestBenchRun("run-1", "baseline", "123456789012345678901234567890")
	// Non-canonical key order and spacing.
	run.Report = []byte(`{ "label": "baseline", "internal_ns": "123456789012345678901234567890" }`)

	got, err := s.WriteBenchRun(ctx, run)
	if err != nil {
		t.Fatalf("WriteBenchRun() failed: %v", err)
	}

	wantReport := `{"internal_ns":"123456789012345678901234567890","label":"baseline"}`
	if string(got.Report) != wantReport {
		t.Errorf("Report = %s, want %s", got.Report, wantReport)
	}
	if got.Digest != ir.ReportDigest([]byte(wantReport)) {
		t.Errorf("Digest = %s, want digest of canonical report", got.Digest)
	}
	if got.Seq != 1 {
		t.Errorf("Seq = %d, want 1", got.Seq)
	}
}

func TestWriteBenchRun_Validation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  ir.BenchRun
	}{
		{"missing id", createTestBenchRun("", "x", "1")},
		{"empty nanos", createTestBenchRun("r", "x", "")},
		{"signed nanos", createTestBenchRun("r", "x", "-5")},
		{"leading zero", createTestBenchRun("r", "x", "007")},
		{"report not an object", ir.BenchRun{ID: "r", InternalNanos: "1", Report: []byte(`[1]`)}},
		{"report not json", ir.BenchRun{ID: "r", InternalNanos: "1", Report: []byte(`{`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.WriteBenchRun(ctx, tt.run); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWriteBenchRun_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.WriteBenchRun(ctx, createTestBenchRun("run-1", "a", "1")); err != nil {
		t.Fatalf("first WriteBenchRun() failed: %v", err)
	}
	if _, err := s.WriteBenchRun(ctx, createTestBenchRun("run-1", "b", "2")); err == nil {
		t.Error("expected error for duplicate run id")
	}
}
