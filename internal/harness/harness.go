package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/roach88/ffibench/internal/compiler"
	"github.com/roach88/ffibench/internal/engine"
	"github.com/roach88/ffibench/internal/ir"
	"github.com/roach88/ffibench/internal/store"
	"github.com/roach88/ffibench/internal/testutil"
)

// TimingStep is the interval every timed call reports under the harness.
const TimingStep = time.Microsecond

// Harness is the test execution engine.
// It runs scenarios against the real dispatcher with deterministic clocks
// and flow tokens.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile the call surface
// 3. Execute flow steps against the dispatcher, checking expect clauses
// 4. Evaluate assertions
// 5. Return result with pass/fail, trace, and errors
//
// The returned error is reserved for failures of the harness itself; a
// scenario whose expectations fail returns a Result with Pass false.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	surface, err := loadSurface(scenario.Surface)
	if err != nil {
		return nil, fmt.Errorf("failed to load surface: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng, err := engine.New(surface,
		engine.WithRecorder(st),
		engine.WithLogger(logger),
		engine.WithFlowGenerator(testutil.NewFixedFlowGenerator(scenario.FlowToken)),
		engine.WithSeqClock(testutil.NewDeterministicClock()),
		engine.WithTimingClock(testutil.NewStepClock(TimingStep)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{store: st, engine: eng, logger: logger}

	ctx := context.Background()
	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func loadSurface(path string) ([]ir.EntryPointSig, error) {
	if path == "" {
		return compiler.DefaultSurface()
	}
	return compiler.LoadSurfaceFile(path)
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Converts the YAML args to host values
// 2. Invokes the entry point through the dispatcher (which records the call)
// 3. Adds the invocation and completion to the trace
// 4. Checks the expect clause against what the dispatcher returned
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		args, err := convertArgsToIRObject(step.Args)
		if err != nil {
			return fmt.Errorf("flow step %d: failed to convert args: %w", i, err)
		}

		rec, err := h.engine.Invoke(ctx, step.Invoke, args)
		var callErr *engine.CallError
		if err != nil && !errors.As(err, &callErr) {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		result.AddCall(rec)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step, rec) {
				result.AddError(msg)
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"entry_point", step.Invoke,
			"call_id", rec.ID,
			"outcome", rec.Outcome,
		)
	}

	return nil
}

// checkExpect compares one call against its expect clause.
func checkExpect(i int, step FlowStep, rec ir.CallRecord) []string {
	var errs []string
	exp := step.Expect

	if rec.Outcome != exp.Case {
		detail := ""
		if rec.Error != "" {
			detail = fmt.Sprintf(" (%s)", rec.Error)
		}
		errs = append(errs, fmt.Sprintf("flow[%d] %s: expected case %q, got %q%s", i, step.Invoke, exp.Case, rec.Outcome, detail))
		return errs
	}

	if exp.Result != nil {
		want, err := convertToIRValue(exp.Result)
		if err != nil {
			errs = append(errs, fmt.Sprintf("flow[%d] %s: invalid expected result: %v", i, step.Invoke, err))
		} else if !matchValue(rec.Result, want) {
			errs = append(errs, fmt.Sprintf("flow[%d] %s: expected result %s, got %s", i, step.Invoke, formatValue(want), formatValue(rec.Result)))
		}
	}

	if exp.Error != "" && !strings.Contains(rec.Error, exp.Error) {
		errs = append(errs, fmt.Sprintf("flow[%d] %s: expected error containing %q, got %q", i, step.Invoke, exp.Error, rec.Error))
	}

	return errs
}

// convertArgsToIRObject converts a map[string]any to ir.IRObject.
// This handles YAML-parsed values and converts them to proper IRValue types.
func convertArgsToIRObject(args map[string]any) (ir.IRObject, error) {
	if args == nil {
		return ir.IRObject{}, nil
	}

	result := make(ir.IRObject, len(args))
	for key, val := range args {
		irVal, err := convertToIRValue(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		result[key] = irVal
	}
	return result, nil
}

// convertToIRValue converts a YAML-parsed value to an IRValue.
// Returns an error for null values since host values always carry a type.
//
// yaml.v3 decodes integers as int, integers past int64 as uint64, and
// everything else numeric as float64; these become IRInt or IRFloat the
// same way JSON numbers do.
func convertToIRValue(val any) (ir.IRValue, error) {
	if val == nil {
		return nil, fmt.Errorf("null values are forbidden in IR (canonical JSON does not support null)")
	}

	switch v := val.(type) {
	case uint64:
		if v <= math.MaxInt64 {
			return ir.IRInt(int64(v)), nil
		}
		return ir.IRFloat(float64(v)), nil
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, elem := range v {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return convertArgsToIRObject(v)
	default:
		return ir.ToIRValue(val)
	}
}
