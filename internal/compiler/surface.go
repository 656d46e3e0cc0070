package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ffibench/internal/ir"
)

//go:embed surface.cue
var defaultSurface []byte

// DefaultSurfaceName is the filename reported in positions for the
// embedded surface.
const DefaultSurfaceName = "surface.cue"

// DefaultSurface compiles the embedded call surface.
func DefaultSurface() ([]ir.EntryPointSig, error) {
	return CompileSurfaceSource(DefaultSurfaceName, defaultSurface)
}

// DefaultSurfaceSource returns the embedded CUE source.
func DefaultSurfaceSource() []byte {
	return append([]byte(nil), defaultSurface...)
}

// LoadSurfaceFile reads and compiles a CUE surface file.
func LoadSurfaceFile(path string) ([]ir.EntryPointSig, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read surface file: %w", err)
	}
	return CompileSurfaceSource(path, src)
}

// CompileSurfaceSource compiles CUE source text into entry point signatures.
// name is used as the filename in error positions.
func CompileSurfaceSource(name string, src []byte) ([]ir.EntryPointSig, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileSurface(v)
}

// CompileSurface compiles the "entrypoint" struct of v.
// Signatures are returned in declaration order.
func CompileSurface(v cue.Value) ([]ir.EntryPointSig, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	epVal := v.LookupPath(cue.ParsePath("entrypoint"))
	if !epVal.Exists() {
		return nil, &CompileError{
			Field:   "entrypoint",
			Message: "entrypoint struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := epVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var sigs []ir.EntryPointSig
	for iter.Next() {
		sig, err := CompileEntryPoint(iter.Value())
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, *sig)
	}

	if len(sigs) == 0 {
		return nil, &CompileError{
			Field:   "entrypoint",
			Message: "at least one entry point is required",
			Pos:     epVal.Pos(),
		}
	}

	return sigs, nil
}

// CompileEntryPoint parses a single entry point struct. The entry point
// name is the last selector of the value's path.
func CompileEntryPoint(v cue.Value) (*ir.EntryPointSig, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	sig := &ir.EntryPointSig{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		sig.Name = labels[len(labels)-1].String()
	}
	if sig.Name == "" {
		return nil, &CompileError{Field: "entrypoint", Message: "entry point name is required", Pos: v.Pos()}
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{
			Field:   sig.Name + ".purpose",
			Message: "purpose is required",
			Pos:     v.Pos(),
		}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	sig.Purpose = purpose

	sig.Args, err = parseFields(v.LookupPath(cue.ParsePath("args")), sig.Name+".args")
	if err != nil {
		return nil, err
	}

	returnsVal := v.LookupPath(cue.ParsePath("returns"))
	if !returnsVal.Exists() {
		return nil, &CompileError{
			Field:   sig.Name + ".returns",
			Message: "returns is required",
			Pos:     v.Pos(),
		}
	}
	sig.Returns, err = parseReturns(returnsVal, sig.Name+".returns")
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// parseFields reads a struct of name: type fields in declaration order.
// A missing struct yields no fields.
func parseFields(v cue.Value, field string) ([]ir.NamedArg, error) {
	if !v.Exists() {
		return nil, nil
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []ir.NamedArg
	for iter.Next() {
		typ, err := extractTypeName(iter.Value(), field+"."+iter.Label())
		if err != nil {
			return nil, err
		}
		out = append(out, ir.NamedArg{Name: iter.Label(), Type: typ})
	}
	return out, nil
}

func parseReturns(v cue.Value, field string) (ir.ReturnShape, error) {
	if v.IncompleteKind() == cue.StructKind {
		fields, err := parseFields(v, field)
		if err != nil {
			return ir.ReturnShape{}, err
		}
		if len(fields) == 0 {
			return ir.ReturnShape{}, &CompileError{
				Field:   field,
				Message: "object return needs at least one field",
				Pos:     v.Pos(),
			}
		}
		return ir.ReturnShape{Type: ir.TypeObject, Fields: fields}, nil
	}

	typ, err := extractTypeName(v, field)
	if err != nil {
		return ir.ReturnShape{}, err
	}
	return ir.ReturnShape{Type: typ}, nil
}

// extractTypeName converts a CUE type to a type tag.
func extractTypeName(v cue.Value, field string) (string, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		return ir.TypeI64, nil
	case cue.FloatKind, cue.NumberKind:
		return ir.TypeF64, nil
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.ListKind:
		elem := v.LookupPath(cue.MakePath(cue.AnyIndex))
		if !elem.Exists() {
			return "", &CompileError{
				Field:   field,
				Message: "list element type is required, e.g. [...number]",
				Pos:     v.Pos(),
			}
		}
		elemType, err := extractTypeName(elem, field+"[]")
		if err != nil {
			return "", err
		}
		if elemType != ir.TypeF64 {
			return "", &CompileError{
				Field:   field,
				Message: fmt.Sprintf("only float sequences are supported, got %s[]", elemType),
				Pos:     v.Pos(),
			}
		}
		return ir.TypeF64Array, nil
	default:
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
