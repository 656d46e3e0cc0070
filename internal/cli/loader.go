package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/ffibench/internal/compiler"
	"github.com/roach88/ffibench/internal/engine"
	"github.com/roach88/ffibench/internal/ir"
	"github.com/roach88/ffibench/internal/store"
)

// LoadError represents an error that occurred while loading a surface or
// opening a database. Code is one of the ErrCode constants.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadSurface compiles the surface at path, or the built-in surface when
// path is empty.
func LoadSurface(path string) ([]ir.EntryPointSig, error) {
	if path == "" {
		sigs, err := compiler.DefaultSurface()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeSurface, Message: "built-in surface failed to compile", Err: err}
		}
		return sigs, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("surface file not found: %s", path)}
	}

	sigs, err := compiler.LoadSurfaceFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeSurface, Message: fmt.Sprintf("surface %s failed to compile", path), Err: err}
	}
	return sigs, nil
}

// OpenStore opens the database at path. An empty path opens nothing and
// returns a nil store.
func OpenStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database %s", path), Err: err}
	}
	return st, nil
}

// NewEngine builds a dispatcher for the surface. When st is non-nil every
// call is recorded in it, and seq resumes after the last stored call.
func NewEngine(ctx context.Context, surface []ir.EntryPointSig, st *store.Store, logger *slog.Logger) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	if st != nil {
		last, err := st.MaxSeq(ctx)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeStore, Message: "failed to read last seq", Err: err}
		}
		opts = append(opts, engine.WithRecorder(st), engine.WithSeqClock(engine.NewClockAt(last)))
	}
	eng, err := engine.New(surface, opts...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeSurface, Message: "surface does not match the native handlers", Err: err}
	}
	return eng, nil
}

// loadErrorCode returns the error code carried by a LoadError.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
