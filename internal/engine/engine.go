package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/ffibench/internal/boundary"
	"github.com/roach88/ffibench/internal/ir"
)

// Recorder persists boundary call records.
// Implemented by store.Store.
type Recorder interface {
	WriteCall(ctx context.Context, rec ir.CallRecord) error
}

// binding pairs a surface signature with the handler that implements it.
type binding struct {
	sig     ir.EntryPointSig
	handler Handler
}

// Engine dispatches boundary calls against a compiled surface.
type Engine struct {
	surface  []ir.EntryPointSig // declaration order
	bindings map[string]binding
	handlers map[string]Handler
	seq      SeqClock
	flowGen  FlowTokenGenerator
	env      Env
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder stores every call record through r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithFlowGenerator sets the flow token generator. Default: UUIDv7Generator.
func WithFlowGenerator(g FlowTokenGenerator) Option {
	return func(e *Engine) {
		e.flowGen = g
	}
}

// WithSeqClock sets the call sequence clock. Default: a fresh Clock.
func WithSeqClock(c SeqClock) Option {
	return func(e *Engine) {
		e.seq = c
	}
}

// WithTimingClock sets the clock timed operations measure with.
// Default: boundary.MonotonicClock.
func WithTimingClock(c boundary.Clock) Option {
	return func(e *Engine) {
		e.env.Clock = c
	}
}

// WithHandlers replaces the built-in handler set.
func WithHandlers(h map[string]Handler) Option {
	return func(e *Engine) {
		e.handlers = h
	}
}

// New creates an Engine for the given surface.
//
// Every entry point must have a handler whose argument list and return
// shape match the signature exactly; otherwise New fails. Handlers with no
// entry point on the surface are simply not callable.
func New(surface []ir.EntryPointSig, opts ...Option) (*Engine, error) {
	e := &Engine{
		handlers: Builtins(),
		seq:      NewClock(),
		flowGen:  UUIDv7Generator{},
		env:      Env{Clock: boundary.MonotonicClock{}},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.surface = slices.Clone(surface)
	e.bindings = make(map[string]binding, len(surface))
	for _, sig := range e.surface {
		if _, dup := e.bindings[sig.Name]; dup {
			return nil, fmt.Errorf("entry point %q declared twice", sig.Name)
		}
		h, ok := e.handlers[sig.Name]
		if !ok {
			return nil, fmt.Errorf("entry point %q has no native handler", sig.Name)
		}
		if err := checkSignature(sig, h); err != nil {
			return nil, err
		}
		e.bindings[sig.Name] = binding{sig: sig, handler: h}
	}

	return e, nil
}

// checkSignature verifies that a handler implements sig.
func checkSignature(sig ir.EntryPointSig, h Handler) error {
	if !slices.Equal(sig.Args, h.Args) {
		return fmt.Errorf("entry point %q: surface args %v do not match handler args %v", sig.Name, sig.Args, h.Args)
	}
	if sig.Returns.Type != h.Returns.Type || !slices.Equal(sig.Returns.Fields, h.Returns.Fields) {
		return fmt.Errorf("entry point %q: surface returns %v do not match handler returns %v", sig.Name, sig.Returns, h.Returns)
	}
	return nil
}

// Surface returns the bound entry point signatures in declaration order.
func (e *Engine) Surface() []ir.EntryPointSig {
	return slices.Clone(e.surface)
}

// Lookup returns the signature of the named entry point.
func (e *Engine) Lookup(name string) (ir.EntryPointSig, bool) {
	b, ok := e.bindings[name]
	return b.sig, ok
}

// Invoke performs one boundary call.
//
// The returned record is always populated with the call's identity and
// outcome. A *CallError is returned, alongside the record, when the call
// never reached its native operation. Any other error means the call could
// not be identified or recorded.
func (e *Engine) Invoke(ctx context.Context, entryPoint string, args ir.IRObject) (ir.CallRecord, error) {
	if args == nil {
		args = ir.IRObject{}
	}

	rec := ir.CallRecord{
		FlowToken:     e.flowGen.Generate(),
		EntryPoint:    entryPoint,
		Args:          args,
		Seq:           e.seq.Next(),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}

	id, err := ir.CallID(rec.FlowToken, entryPoint, args, rec.Seq)
	if err != nil {
		return rec, fmt.Errorf("invoke %s: %w", entryPoint, err)
	}
	rec.ID = id

	callErr := e.dispatch(&rec)

	e.logger.Debug("boundary call",
		"entry_point", entryPoint,
		"seq", rec.Seq,
		"call_id", rec.ID,
		"flow_token", rec.FlowToken,
		"outcome", rec.Outcome,
	)

	if e.recorder != nil {
		if err := e.recorder.WriteCall(ctx, rec); err != nil {
			return rec, fmt.Errorf("record call %s: %w", rec.ID, err)
		}
	}

	if callErr != nil {
		return rec, callErr
	}
	return rec, nil
}

// dispatch converts args, runs the handler, and fills in the outcome.
func (e *Engine) dispatch(rec *ir.CallRecord) error {
	b, ok := e.bindings[rec.EntryPoint]
	if !ok {
		callErr := &CallError{
			Code:       ErrCodeUnknownEntryPoint,
			EntryPoint: rec.EntryPoint,
			Seq:        rec.Seq,
		}
		rec.Outcome = ir.OutcomeUnknownEntryPoint
		rec.Error = callErr.Error()
		return callErr
	}

	native, err := convertArgs(b.sig, rec.Args)
	if err != nil {
		callErr := &CallError{
			Code:       ErrCodeConversion,
			EntryPoint: rec.EntryPoint,
			Seq:        rec.Seq,
			Err:        err,
		}
		rec.Outcome = ir.OutcomeConversionError
		rec.Error = err.Error()
		return callErr
	}

	rec.Result = b.handler.Call(e.env, native)
	rec.Outcome = ir.OutcomeOK
	return nil
}
