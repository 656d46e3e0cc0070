package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/ffibench/internal/boundary"
	"github.com/roach88/ffibench/internal/engine"
	"github.com/roach88/ffibench/internal/ir"
)

// ctxCheckEvery is how many loop iterations run between cancellation checks.
const ctxCheckEvery = 1024

// Invoker performs boundary calls. Implemented by *engine.Engine.
type Invoker interface {
	Invoke(ctx context.Context, entryPoint string, args ir.IRObject) (ir.CallRecord, error)
}

// Runner executes benchmark runs against an Invoker.
type Runner struct {
	invoker Invoker
	clock   boundary.Clock
	newID   func() string
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock that times each scenario from the caller's side.
// Default: boundary.MonotonicClock.
func WithClock(c boundary.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithIDGenerator sets the run ID source. Default: UUIDv7.
func WithIDGenerator(f func() string) Option {
	return func(r *Runner) {
		r.newID = f
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner.
func NewRunner(inv Invoker, opts ...Option) *Runner {
	r := &Runner{
		invoker: inv,
		clock:   boundary.MonotonicClock{},
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sink keeps direct-call results observable so the loops are not elided.
var sink struct {
	mu sync.Mutex
	i  int64
	f  float64
}

// Run executes scenarios A, B, and C in order.
// It stops between calls once ctx is done and returns ctx's error.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	data := FloatList(cfg.ListSize)
	report := &Report{ID: r.newID(), Config: cfg}

	var err error
	if report.Simple, err = r.runSimple(ctx, cfg.SimpleCalls); err != nil {
		return nil, fmt.Errorf("scenario A: %w", err)
	}
	r.logger.Info("scenario complete", "scenario", "A", "direct_ns", report.Simple.DirectNanos, "boundary_ns", report.Simple.BoundaryNanos)

	if report.Sequence, err = r.runSequence(ctx, cfg.ComplexCalls, data); err != nil {
		return nil, fmt.Errorf("scenario B: %w", err)
	}
	r.logger.Info("scenario complete", "scenario", "B", "direct_ns", report.Sequence.DirectNanos, "boundary_ns", report.Sequence.BoundaryNanos)

	if report.Split, err = r.runSplit(ctx, cfg.ComplexCalls, cfg.Workers, data); err != nil {
		return nil, fmt.Errorf("scenario C: %w", err)
	}
	r.logger.Info("scenario complete", "scenario", "C", "total_ns", report.Split.TotalNanos, "internal_ns", report.Split.InternalNanos)

	return report, nil
}

// runSimple times scenario A: integer addition.
func (r *Runner) runSimple(ctx context.Context, calls int) (Comparison, error) {
	const a, b = 10, 20
	args := ir.IRObject{"a": ir.IRInt(a), "b": ir.IRInt(b)}

	if err := r.verify(ctx, engine.EntrySumAsI64, args, ir.IRInt(boundary.SumAsI64(a, b))); err != nil {
		return Comparison{}, err
	}

	var acc int64
	start := r.clock.Now()
	for i := 0; i < calls; i++ {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return Comparison{}, ctx.Err()
		}
		acc += boundary.SumAsI64(a, b)
	}
	direct := r.clock.Now().Sub(start)
	keep(acc, 0)

	start = r.clock.Now()
	for i := 0; i < calls; i++ {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return Comparison{}, ctx.Err()
		}
		if _, err := r.invoker.Invoke(ctx, engine.EntrySumAsI64, args); err != nil {
			return Comparison{}, err
		}
	}
	viaBoundary := r.clock.Now().Sub(start)

	return Comparison{Calls: calls, DirectNanos: direct.Nanoseconds(), BoundaryNanos: viaBoundary.Nanoseconds()}, nil
}

// runSequence times scenario B: summing the float sequence.
func (r *Runner) runSequence(ctx context.Context, calls int, data []float64) (Comparison, error) {
	args := ir.IRObject{"data": ir.NewIRFloatArray(data)}

	if err := r.verify(ctx, engine.EntrySumListOfFloats, args, ir.IRFloat(boundary.SumListOfFloats(data))); err != nil {
		return Comparison{}, err
	}

	var acc float64
	start := r.clock.Now()
	for i := 0; i < calls; i++ {
		if err := ctx.Err(); err != nil {
			return Comparison{}, err
		}
		acc += boundary.SumListOfFloats(data)
	}
	direct := r.clock.Now().Sub(start)
	keep(0, acc)

	start = r.clock.Now()
	for i := 0; i < calls; i++ {
		if err := ctx.Err(); err != nil {
			return Comparison{}, err
		}
		if _, err := r.invoker.Invoke(ctx, engine.EntrySumListOfFloats, args); err != nil {
			return Comparison{}, err
		}
	}
	viaBoundary := r.clock.Now().Sub(start)

	return Comparison{Calls: calls, DirectNanos: direct.Nanoseconds(), BoundaryNanos: viaBoundary.Nanoseconds()}, nil
}

// runSplit times scenario C and sums the nanos every call reports.
func (r *Runner) runSplit(ctx context.Context, calls, workers int, data []float64) (Split, error) {
	args := ir.IRObject{"data": ir.NewIRFloatArray(data)}
	partial := make([]*big.Int, workers)

	g, gctx := errgroup.WithContext(ctx)
	start := r.clock.Now()
	for w := 0; w < workers; w++ {
		n := calls / workers
		if w < calls%workers {
			n++
		}
		w := w
		g.Go(func() error {
			sum, err := r.timedCalls(gctx, n, args)
			if err != nil {
				return err
			}
			partial[w] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Split{}, err
	}
	total := r.clock.Now().Sub(start)

	internal := new(big.Int)
	for _, p := range partial {
		internal.Add(internal, p)
	}
	return newSplit(calls, workers, total, internal), nil
}

// timedCalls performs n timed calls and returns the exact sum of their nanos.
func (r *Runner) timedCalls(ctx context.Context, n int, args ir.IRObject) (*big.Int, error) {
	sum := new(big.Int)
	nanos := new(big.Int)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.invoker.Invoke(ctx, engine.EntrySumListOfFloatsWithTiming, args)
		if err != nil {
			return nil, err
		}
		s, err := nanosOf(rec.Result)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", rec.ID, err)
		}
		if _, ok := nanos.SetString(s, 10); !ok {
			return nil, fmt.Errorf("call %s: nanos %q is not a decimal integer", rec.ID, s)
		}
		sum.Add(sum, nanos)
	}
	return sum, nil
}

// verify makes one untimed boundary call and checks it agrees with the
// direct result.
func (r *Runner) verify(ctx context.Context, entryPoint string, args ir.IRObject, want ir.IRValue) error {
	rec, err := r.invoker.Invoke(ctx, entryPoint, args)
	if err != nil {
		return err
	}
	if rec.Result != want {
		return fmt.Errorf("%s returned %v through the boundary, %v directly", entryPoint, rec.Result, want)
	}
	return nil
}

func nanosOf(result ir.IRValue) (string, error) {
	obj, ok := result.(ir.IRObject)
	if !ok {
		return "", fmt.Errorf("timed result is %s, want object", ir.KindOf(result))
	}
	s, ok := obj["nanos"].(ir.IRString)
	if !ok {
		return "", fmt.Errorf("timed result nanos is %s, want string", ir.KindOf(obj["nanos"]))
	}
	return string(s), nil
}

func keep(i int64, f float64) {
	sink.mu.Lock()
	sink.i += i
	sink.f += f
	sink.mu.Unlock()
}
