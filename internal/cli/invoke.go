package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ffibench/internal/engine"
	"github.com/roach88/ffibench/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Args     string
	Surface  string
	Database string
}

// InvokeResult is the JSON payload of a successful call.
type InvokeResult struct {
	CallID     string          `json:"call_id"`
	FlowToken  string          `json:"flow_token"`
	EntryPoint string          `json:"entry_point"`
	Seq        int64           `json:"seq"`
	Outcome    string          `json:"outcome"`
	Result     json.RawMessage `json:"result"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <entry-point>",
		Short: "Call one entry point through the dispatcher",
		Long: `Call one entry point through the dispatcher.

Arguments are a JSON object keyed by argument name. Integer literals are
host integers; anything with a fraction or exponent is a host float.
Non-finite floats are written {"$float":"NaN"}, {"$float":"Infinity"} or
{"$float":"-Infinity"}; text output prints them bare.
With --db the call is recorded in the database.

Exit codes:
  0 - Call succeeded
  1 - Arguments did not convert, or the entry point does not exist
  2 - Command error (bad --args JSON, surface or database errors)

Examples:
  ffibench invoke sumAsI64 --args '{"a":2,"b":3}'
  ffibench invoke sumListOfFloatsWithTiming --args '{"data":[1.5,2.5]}' --format json
  ffibench invoke sumListOfFloats --args '{"data":[1,2]}' --db ./calls.db
  ffibench invoke sumListOfFloats --args '{"data":[1,{"$float":"NaN"}]}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeEntryPoint(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "entry point arguments as a JSON object")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "CUE surface file (default: built-in surface)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the call in this SQLite database")

	return cmd
}

func invokeEntryPoint(ctx context.Context, opts *InvokeOptions, entryPoint string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	args, err := parseArgsObject(opts.Args)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidArgs, "invalid --args JSON", err)
	}

	surface, err := LoadSurface(opts.Surface)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to load surface", err)
	}

	st, err := OpenStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to open database", err)
	}
	if st != nil {
		defer st.Close()
	}

	eng, err := NewEngine(ctx, surface, st, opts.Logger(cmd.ErrOrStderr()))
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to create dispatcher", err)
	}

	rec, err := eng.Invoke(ctx, entryPoint, args)
	if err != nil {
		var callErr *engine.CallError
		if !errors.As(err, &callErr) {
			return out.Fail(ExitCommandError, ErrCodeStore, "call failed", err)
		}
		code := ErrCodeConversion
		if callErr.Code == engine.ErrCodeUnknownEntryPoint {
			code = ErrCodeUnknownEntryPoint
		}
		return out.Fail(ExitFailure, code, fmt.Sprintf("%s failed", entryPoint), err)
	}

	out.VerboseLog("call %s seq=%d flow=%s", rec.ID, rec.Seq, rec.FlowToken)

	if !out.IsJSON() {
		text, err := ir.FormatText(rec.Result)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to render result", err)
		}
		return out.Success(text)
	}

	result, err := ir.MarshalIRValue(rec.Result)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to render result", err)
	}
	return out.Success(InvokeResult{
		CallID:     rec.ID,
		FlowToken:  rec.FlowToken,
		EntryPoint: rec.EntryPoint,
		Seq:        rec.Seq,
		Outcome:    rec.Outcome,
		Result:     result,
	})
}

// parseArgsObject decodes --args into named host values.
func parseArgsObject(s string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(s))
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", ir.KindOf(v))
	}
	return obj, nil
}
