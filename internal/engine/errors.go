package engine

import (
	"errors"
	"fmt"
)

// CallErrorCode categorizes failed boundary calls.
type CallErrorCode string

const (
	// ErrCodeConversion indicates a host argument could not become the
	// native type the entry point takes.
	ErrCodeConversion CallErrorCode = "CONVERSION_FAILED"

	// ErrCodeUnknownEntryPoint indicates the call named no entry point on
	// the surface.
	ErrCodeUnknownEntryPoint CallErrorCode = "UNKNOWN_ENTRY_POINT"
)

// CallError is returned by Invoke when a call never reaches its native
// operation. It wraps the cause, so errors.Is(err, convert.ErrConversion)
// works for conversion failures.
type CallError struct {
	Code       CallErrorCode
	EntryPoint string
	Seq        int64
	Err        error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.EntryPoint, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.EntryPoint)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsConversionError reports whether err is a CallError for a conversion failure.
func IsConversionError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Code == ErrCodeConversion
}

// IsUnknownEntryPoint reports whether err is a CallError for an unknown entry point.
func IsUnknownEntryPoint(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Code == ErrCodeUnknownEntryPoint
}
