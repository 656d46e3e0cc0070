package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ffibench/internal/ir"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCall creates a successful sumAsI64 call record with a real call ID.
func createTestCall(flowToken string, seq, a, b int64) ir.CallRecord {
	args := ir.IRObject{"a": ir.IRInt(a), "b": ir.IRInt(b)}
	return ir.CallRecord{
		ID:            ir.MustCallID(flowToken, "sumAsI64", args, seq),
		FlowToken:     flowToken,
		EntryPoint:    "sumAsI64",
		Args:          args,
		Seq:           seq,
		Outcome:       ir.OutcomeOK,
		Result:        ir.IRInt(a + b),
		EngineVersion: "0.1.0",
		IRVersion:     "1",
	}
}

// createTestBenchRun creates a benchmark run with a small report.
func createTestBenchRun(id, label, internalNanos string) ir.BenchRun {
	return ir.BenchRun{
		ID:            id,
		Label:         label,
		InternalNanos: internalNanos,
		Report:        []byte(`{"internal_ns":"` + internalNanos + `","label":"` + label + `"}`),
	}
}
