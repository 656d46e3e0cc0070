package engine

import (
	"github.com/roach88/ffibench/internal/boundary"
	"github.com/roach88/ffibench/internal/convert"
	"github.com/roach88/ffibench/internal/ir"
)

// Entry point names of the built-in native operations.
const (
	EntrySumAsI64                  = "sumAsI64"
	EntrySumListOfFloats           = "sumListOfFloats"
	EntrySumListOfFloatsWithTiming = "sumListOfFloatsWithTiming"
)

// Env carries what a native operation may depend on besides its arguments.
type Env struct {
	// Clock measures intervals for timed operations.
	Clock boundary.Clock
}

// Handler is a native operation together with the signature it implements.
// New checks every surface entry point against its handler's signature.
type Handler struct {
	Args    []ir.NamedArg
	Returns ir.ReturnShape
	Call    func(env Env, args NativeArgs) ir.IRValue
}

// NativeArgs holds converted arguments by name.
// Accessors return the zero value for names the signature did not declare.
type NativeArgs struct {
	values map[string]any
}

// Int64 returns an i64 argument.
func (a NativeArgs) Int64(name string) int64 {
	v, _ := a.values[name].(int64)
	return v
}

// Float64 returns an f64 argument.
func (a NativeArgs) Float64(name string) float64 {
	v, _ := a.values[name].(float64)
	return v
}

// Float64Slice returns an f64[] argument.
func (a NativeArgs) Float64Slice(name string) []float64 {
	v, _ := a.values[name].([]float64)
	return v
}

var floatSeqArgs = []ir.NamedArg{{Name: "data", Type: ir.TypeF64Array}}

// Builtins returns the handlers for the three native boundary operations.
func Builtins() map[string]Handler {
	return map[string]Handler{
		EntrySumAsI64: {
			Args: []ir.NamedArg{
				{Name: "a", Type: ir.TypeI64},
				{Name: "b", Type: ir.TypeI64},
			},
			Returns: ir.ReturnShape{Type: ir.TypeI64},
			Call: func(_ Env, args NativeArgs) ir.IRValue {
				return convert.FromInt64(boundary.SumAsI64(args.Int64("a"), args.Int64("b")))
			},
		},
		EntrySumListOfFloats: {
			Args:    floatSeqArgs,
			Returns: ir.ReturnShape{Type: ir.TypeF64},
			Call: func(_ Env, args NativeArgs) ir.IRValue {
				return convert.FromFloat64(boundary.SumListOfFloats(args.Float64Slice("data")))
			},
		},
		EntrySumListOfFloatsWithTiming: {
			Args: floatSeqArgs,
			Returns: ir.ReturnShape{
				Type: ir.TypeObject,
				Fields: []ir.NamedArg{
					{Name: "result", Type: ir.TypeF64},
					{Name: "nanos", Type: ir.TypeString},
				},
			},
			Call: func(env Env, args NativeArgs) ir.IRValue {
				return convert.FromTimingResult(boundary.SumListOfFloatsWithClock(env.Clock, args.Float64Slice("data")))
			},
		},
	}
}

// convertArgs converts host args into native values following sig.
// Keys the signature does not declare, and declared keys that are absent,
// are conversion failures.
func convertArgs(sig ir.EntryPointSig, args ir.IRObject) (NativeArgs, error) {
	declared := make(map[string]bool, len(sig.Args))
	for _, a := range sig.Args {
		declared[a.Name] = true
	}
	for _, k := range args.SortedKeys() {
		if !declared[k] {
			return NativeArgs{}, &convert.ConversionError{
				Path:   k,
				Want:   "no argument",
				Got:    ir.KindOf(args[k]),
				Reason: "unknown argument",
			}
		}
	}

	values := make(map[string]any, len(sig.Args))
	for _, a := range sig.Args {
		v, ok := args[a.Name]
		if !ok {
			return NativeArgs{}, &convert.ConversionError{
				Path:   a.Name,
				Want:   a.Type,
				Got:    "undefined",
				Reason: "argument is required",
			}
		}

		native, err := convertValue(a.Type, v)
		if err != nil {
			return NativeArgs{}, convert.WithPath(err, a.Name)
		}
		values[a.Name] = native
	}
	return NativeArgs{values: values}, nil
}

func convertValue(typ string, v ir.IRValue) (any, error) {
	switch typ {
	case ir.TypeI64:
		return convert.Int64(v)
	case ir.TypeF64:
		return convert.Float64(v)
	case ir.TypeF64Array:
		return convert.Float64Slice(v)
	default:
		return nil, &convert.ConversionError{Want: typ, Got: ir.KindOf(v), Reason: "unsupported argument type"}
	}
}
