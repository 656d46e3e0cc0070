package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/ffibench/internal/ir"
)

// marshalArgs converts IRObject to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalArgs(args ir.IRObject) (string, error) {
	if args == nil {
		args = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalResult converts a call result to canonical JSON TEXT.
// A nil result (failed call) is stored as NULL.
func marshalResult(result ir.IRValue) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalArgs parses canonical JSON TEXT to IRObject.
// Uses ir.IRObject.UnmarshalJSON which properly handles large integers via json.Number
// to avoid float64 precision loss for values > 2^53.
func unmarshalArgs(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return obj, nil
}

// unmarshalResult parses a stored result column back to an IRValue.
// NULL becomes a nil result.
func unmarshalResult(data sql.NullString) (ir.IRValue, error) {
	if !data.Valid {
		return nil, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return v, nil
}
