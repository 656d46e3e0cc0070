package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ffibench/internal/ir"
)

// SurfaceOptions holds flags for the surface command.
type SurfaceOptions struct {
	*RootOptions
	File string
}

// NewSurfaceCommand creates the surface command.
func NewSurfaceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SurfaceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Compile and print the call surface",
		Long: `Compile a CUE call surface and print its entry point signatures.

Without --file the built-in surface is shown. A custom surface must still
match the native handlers, so compiling it also checks every signature.

Examples:
  ffibench surface
  ffibench surface --file ./surface.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSurface(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "CUE surface file (default: built-in surface)")

	return cmd
}

func showSurface(opts *SurfaceOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	sigs, err := LoadSurface(opts.File)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to load surface", err)
	}
	if _, err := NewEngine(cmd.Context(), sigs, nil, opts.Logger(cmd.ErrOrStderr())); err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "surface rejected", err)
	}

	if out.IsJSON() {
		return out.Success(map[string]any{"entry_points": sigs})
	}

	w := cmd.OutOrStdout()
	for _, sig := range sigs {
		fmt.Fprintf(w, "%s(%s) -> %s\n", sig.Name, formatArgs(sig.Args), formatReturns(sig.Returns))
		if sig.Purpose != "" {
			fmt.Fprintf(w, "  %s\n", sig.Purpose)
		}
	}
	return nil
}

func formatArgs(args []ir.NamedArg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + ": " + a.Type
	}
	return strings.Join(parts, ", ")
}

func formatReturns(r ir.ReturnShape) string {
	if r.Type != ir.TypeObject {
		return r.Type
	}
	return "{" + formatArgs(r.Fields) + "}"
}
