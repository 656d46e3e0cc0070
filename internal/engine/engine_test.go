package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ffibench/internal/compiler"
	"github.com/roach88/ffibench/internal/convert"
	"github.com/roach88/ffibench/internal/ir"
	"github.com/roach88/ffibench/internal/store"
	"github.com/roach88/ffibench/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memRecorder collects call records in memory.
type memRecorder struct {
	mu      sync.Mutex
	records []ir.CallRecord
	err     error
}

func (r *memRecorder) WriteCall(_ context.Context, rec ir.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func defaultSurface(t *testing.T) []ir.EntryPointSig {
	t.Helper()
	sigs, err := compiler.DefaultSurface()
	require.NoError(t, err)
	return sigs
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithFlowGenerator(testutil.NewFixedFlowGenerator("flow-test")),
		WithSeqClock(testutil.NewDeterministicClock()),
		WithTimingClock(testutil.NewStepClock(500 * time.Nanosecond)),
	}
	e, err := New(defaultSurface(t), append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func TestEngine_NewBindsDefaultSurface(t *testing.T) {
	e := newTestEngine(t)

	names := make([]string, 0, 3)
	for _, sig := range e.Surface() {
		names = append(names, sig.Name)
	}
	assert.Equal(t, []string{EntrySumAsI64, EntrySumListOfFloats, EntrySumListOfFloatsWithTiming}, names)

	sig, ok := e.Lookup(EntrySumAsI64)
	require.True(t, ok)
	assert.Len(t, sig.Args, 2)

	_, ok = e.Lookup("nope")
	assert.False(t, ok)
}

func TestEngine_NewMissingHandler(t *testing.T) {
	surface := []ir.EntryPointSig{{Name: "mul", Returns: ir.ReturnShape{Type: ir.TypeI64}}}
	_, err := New(surface)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mul" has no native handler`)
}

func TestEngine_NewSignatureMismatch(t *testing.T) {
	surface := defaultSurface(t)
	surface[0].Args = []ir.NamedArg{{Name: "a", Type: ir.TypeF64}, {Name: "b", Type: ir.TypeI64}}

	_, err := New(surface)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match handler args")
}

func TestEngine_NewReturnMismatch(t *testing.T) {
	surface := defaultSurface(t)
	surface[2].Returns.Fields = surface[2].Returns.Fields[:1]

	_, err := New(surface)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match handler returns")
}

func TestEngine_NewDuplicateEntryPoint(t *testing.T) {
	surface := defaultSurface(t)
	surface = append(surface, surface[0])

	_, err := New(surface)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestEngine_InvokeStringArgumentUnsupported(t *testing.T) {
	sig := ir.EntryPointSig{
		Name:    "label",
		Args:    []ir.NamedArg{{Name: "s", Type: ir.TypeString}},
		Returns: ir.ReturnShape{Type: ir.TypeI64},
	}
	handlers := map[string]Handler{
		"label": {
			Args:    sig.Args,
			Returns: sig.Returns,
			Call: func(Env, NativeArgs) ir.IRValue {
				t.Fatal("handler must not run")
				return nil
			},
		},
	}

	e, err := New([]ir.EntryPointSig{sig}, WithHandlers(handlers))
	require.NoError(t, err)

	rec, err := e.Invoke(context.Background(), "label", ir.IRObject{"s": ir.IRString("x")})
	require.Error(t, err)
	assert.True(t, IsConversionError(err))
	assert.Equal(t, ir.OutcomeConversionError, rec.Outcome)
	assert.Contains(t, rec.Error, "unsupported argument type")
}

func TestEngine_SurfaceIsCopy(t *testing.T) {
	e := newTestEngine(t)
	s := e.Surface()
	s[0].Name = "changed"
	assert.Equal(t, EntrySumAsI64, e.Surface()[0].Name)
}

func TestEngine_InvokeSumAsI64(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Invoke(ctx, EntrySumAsI64, ir.IRObject{"a": ir.IRInt(2), "b": ir.IRInt(3)})
	require.NoError(t, err)

	assert.Equal(t, ir.OutcomeOK, rec.Outcome)
	assert.Equal(t, ir.IRInt(5), rec.Result)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "flow-test", rec.FlowToken)
	assert.Equal(t, ir.MustCallID("flow-test", EntrySumAsI64, rec.Args, 1), rec.ID)
	assert.Equal(t, ir.EngineVersion, rec.EngineVersion)
	assert.Empty(t, rec.Error)

	rec, err = e.Invoke(ctx, EntrySumAsI64, ir.IRObject{"a": ir.IRInt(-7), "b": ir.IRFloat(7)})
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(0), rec.Result)
	assert.Equal(t, int64(2), rec.Seq)
}

func TestEngine_InvokeSumListOfFloats(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Invoke(ctx, EntrySumListOfFloats, ir.IRObject{
		"data": ir.IRArray{ir.IRFloat(1.5), ir.IRFloat(2.5), ir.IRFloat(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, ir.IRFloat(7), rec.Result)

	rec, err = e.Invoke(ctx, EntrySumListOfFloats, ir.IRObject{"data": ir.IRArray{}})
	require.NoError(t, err)
	assert.Equal(t, ir.IRFloat(0), rec.Result)
}

func TestEngine_InvokeWithTiming(t *testing.T) {
	e := newTestEngine(t)

	rec, err := e.Invoke(context.Background(), EntrySumListOfFloatsWithTiming, ir.IRObject{
		"data": ir.IRArray{ir.IRFloat(1), ir.IRFloat(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, ir.IRObject{"result": ir.IRFloat(3), "nanos": ir.IRString("500")}, rec.Result)
}

func TestEngine_InvokeNonFinitePropagates(t *testing.T) {
	st, err := store.Open(store.MemoryPath)
	require.NoError(t, err)
	defer st.Close()

	e := newTestEngine(t, WithRecorder(st))
	ctx := context.Background()

	tests := []struct {
		name       string
		entryPoint string
		data       ir.IRArray
		check      func(float64) bool
	}{
		{"nan argument", EntrySumListOfFloats, ir.IRArray{ir.IRFloat(1), ir.IRFloat(math.NaN())}, math.IsNaN},
		{"overflow to inf", EntrySumListOfFloats, ir.IRArray{ir.IRFloat(1e308), ir.IRFloat(1e308)}, func(f float64) bool { return math.IsInf(f, 1) }},
		{"negative inf argument", EntrySumListOfFloats, ir.IRArray{ir.IRFloat(math.Inf(-1)), ir.IRFloat(5)}, func(f float64) bool { return math.IsInf(f, -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := e.Invoke(ctx, tt.entryPoint, ir.IRObject{"data": tt.data})
			require.NoError(t, err)
			assert.Equal(t, ir.OutcomeOK, rec.Outcome)
			assert.Len(t, rec.ID, 64)

			got, ok := rec.Result.(ir.IRFloat)
			require.True(t, ok)
			assert.True(t, tt.check(float64(got)), "result %v", got)

			stored, err := st.ReadCall(ctx, rec.ID)
			require.NoError(t, err)
			storedResult, ok := stored.Result.(ir.IRFloat)
			require.True(t, ok)
			assert.True(t, tt.check(float64(storedResult)), "stored result %v", storedResult)
		})
	}
}

func TestEngine_InvokeWithTimingNonFinite(t *testing.T) {
	e := newTestEngine(t)

	rec, err := e.Invoke(context.Background(), EntrySumListOfFloatsWithTiming, ir.IRObject{
		"data": ir.IRArray{ir.IRFloat(math.Inf(1)), ir.IRFloat(math.Inf(-1))},
	})
	require.NoError(t, err)

	obj, ok := rec.Result.(ir.IRObject)
	require.True(t, ok)
	assert.True(t, math.IsNaN(float64(obj["result"].(ir.IRFloat))))
	assert.Equal(t, ir.IRString("500"), obj["nanos"])
}

func TestEngine_InvokeWithMonotonicClock(t *testing.T) {
	e, err := New(defaultSurface(t))
	require.NoError(t, err)

	rec, err := e.Invoke(context.Background(), EntrySumListOfFloatsWithTiming, ir.IRObject{
		"data": ir.NewIRFloatArray([]float64{1, 2}),
	})
	require.NoError(t, err)

	obj, ok := rec.Result.(ir.IRObject)
	require.True(t, ok)
	assert.Equal(t, ir.IRFloat(3), obj["result"])
	assert.Regexp(t, `^(0|[1-9][0-9]*)$`, string(obj["nanos"].(ir.IRString)))
	assert.Len(t, rec.FlowToken, 36, "default flow tokens are UUIDs")
}

func TestEngine_InvokeConversionFailureSkipsHandler(t *testing.T) {
	calls := 0
	handlers := Builtins()
	h := handlers[EntrySumAsI64]
	inner := h.Call
	h.Call = func(env Env, args NativeArgs) ir.IRValue {
		calls++
		return inner(env, args)
	}
	handlers[EntrySumAsI64] = h

	rec := &memRecorder{}
	e := newTestEngine(t, WithHandlers(handlers), WithRecorder(rec))

	tests := []struct {
		name    string
		args    ir.IRObject
		message string
	}{
		{"string arg", ir.IRObject{"a": ir.IRString("2"), "b": ir.IRInt(3)}, "a: cannot convert string to i64"},
		{"fractional", ir.IRObject{"a": ir.IRInt(2), "b": ir.IRFloat(3.5)}, "b: cannot convert float to i64"},
		{"missing arg", ir.IRObject{"a": ir.IRInt(2)}, "b: cannot convert undefined to i64: argument is required"},
		{"unknown arg", ir.IRObject{"a": ir.IRInt(2), "b": ir.IRInt(3), "c": ir.IRInt(4)}, "c: cannot convert int to no argument: unknown argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Invoke(context.Background(), EntrySumAsI64, tt.args)
			require.Error(t, err)

			assert.True(t, IsConversionError(err))
			assert.True(t, errors.Is(err, convert.ErrConversion))
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, ir.OutcomeConversionError, got.Outcome)
			assert.Nil(t, got.Result)
			assert.Contains(t, got.Error, tt.message)
		})
	}

	assert.Zero(t, calls, "native handler must not run when conversion fails")
	assert.Len(t, rec.records, len(tests), "failed calls are still recorded")
}

func TestEngine_InvokeSequenceElementError(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Invoke(context.Background(), EntrySumListOfFloats, ir.IRObject{
		"data": ir.IRArray{ir.IRFloat(1), ir.IRString("two")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data[1]: cannot convert string to f64")

	_, err = e.Invoke(context.Background(), EntrySumListOfFloats, ir.IRObject{"data": ir.IRInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data: cannot convert int to f64[]")
}

func TestEngine_InvokeUnknownEntryPoint(t *testing.T) {
	e := newTestEngine(t)

	rec, err := e.Invoke(context.Background(), "sumAsI32", ir.IRObject{})
	require.Error(t, err)
	assert.True(t, IsUnknownEntryPoint(err))
	assert.False(t, IsConversionError(err))
	assert.Equal(t, ir.OutcomeUnknownEntryPoint, rec.Outcome)
	assert.Equal(t, "UNKNOWN_ENTRY_POINT: sumAsI32", rec.Error)
}

func TestEngine_InvokeNilArgs(t *testing.T) {
	e := newTestEngine(t)

	rec, err := e.Invoke(context.Background(), EntrySumAsI64, nil)
	require.Error(t, err)
	assert.NotNil(t, rec.Args)
	assert.True(t, IsConversionError(err))
}

func TestEngine_InvokeRecordsCalls(t *testing.T) {
	rec := &memRecorder{}
	e := newTestEngine(t, WithRecorder(rec))

	_, err := e.Invoke(context.Background(), EntrySumAsI64, ir.IRObject{"a": ir.IRInt(1), "b": ir.IRInt(1)})
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	assert.Equal(t, ir.IRInt(2), rec.records[0].Result)
}

func TestEngine_InvokeRecorderFailure(t *testing.T) {
	e := newTestEngine(t, WithRecorder(&memRecorder{err: errors.New("disk full")}))

	rec, err := e.Invoke(context.Background(), EntrySumAsI64, ir.IRObject{"a": ir.IRInt(1), "b": ir.IRInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, ir.OutcomeOK, rec.Outcome, "the call itself completed")
}

func TestEngine_InvokeLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(t, WithLogger(logger))

	_, err := e.Invoke(context.Background(), EntrySumAsI64, ir.IRObject{"a": ir.IRInt(1), "b": ir.IRInt(1)})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "boundary call")
	assert.Contains(t, out, "entry_point=sumAsI64")
	assert.Contains(t, out, "outcome=ok")
}

func TestEngine_ConcurrentInvoke(t *testing.T) {
	rec := &memRecorder{}
	e, err := New(defaultSurface(t), WithRecorder(rec))
	require.NoError(t, err)

	const calls = 200
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < calls; i++ {
		i := i
		g.Go(func() error {
			got, err := e.Invoke(ctx, EntrySumAsI64, ir.IRObject{"a": ir.IRInt(int64(i)), "b": ir.IRInt(1)})
			if err != nil {
				return err
			}
			if got.Result != ir.IRInt(int64(i)+1) {
				return fmt.Errorf("call %d: got %v", i, got.Result)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	seqs := make(map[int64]bool, calls)
	for _, r := range rec.records {
		seqs[r.Seq] = true
	}
	assert.Len(t, seqs, calls, "every call gets a distinct seq")
}
