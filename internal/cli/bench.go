package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/roach88/ffibench/internal/bench"
	"github.com/roach88/ffibench/internal/ir"
)

// BenchOptions holds flags for the bench command.
type BenchOptions struct {
	*RootOptions
	bench.Config
	ConfigFile string
	Surface    string
	Database   string
}

// BenchResult is the JSON payload of a benchmark run.
type BenchResult struct {
	Report *bench.Report `json:"report"`
	Stored *ir.BenchRun  `json:"stored,omitempty"`
}

// NewBenchCommand creates the bench command.
func NewBenchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BenchOptions{RootOptions: rootOpts, Config: bench.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure boundary call overhead",
		Long: `Measure boundary call overhead.

Runs three scenarios and prints their timings:
  A - integer addition, direct vs across the boundary
  B - summing a float list, direct vs across the boundary
  C - the timed sum, splitting wall time into native work and overhead

Sizes come from the flags, or from a TOML file given with --config;
flags set on the command line override the file. Calls do not touch the
database. With --db the finished report is stored
and can be listed with 'ffibench history'. Interrupting the run stops it
between calls.

Examples:
  ffibench bench
  ffibench bench --simple-calls 10000 --complex-calls 100 --list-size 1000
  ffibench bench --workers 4 --label laptop --db ./bench.db --format json
  ffibench bench --config ./bench.toml --workers 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := applyConfigFile(opts, cmd); err != nil {
				return newFormatter(opts.RootOptions, cmd).Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
			}
			return runBench(ctx, opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.SimpleCalls, "simple-calls", bench.DefaultSimpleCalls, "calls in scenario A")
	cmd.Flags().IntVar(&opts.ComplexCalls, "complex-calls", bench.DefaultComplexCalls, "calls in scenarios B and C")
	cmd.Flags().IntVar(&opts.ListSize, "list-size", bench.DefaultListSize, "floats per list in scenarios B and C")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "goroutines sharing scenario C")
	cmd.Flags().StringVar(&opts.Label, "label", "", "label stored with the run")
	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "TOML file with run sizes")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "CUE surface file (default: built-in surface)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the report in this SQLite database")

	return cmd
}

// benchFlags maps size flags onto the config field they set.
var benchFlags = map[string]func(dst *bench.Config, src bench.Config){
	"simple-calls":  func(dst *bench.Config, src bench.Config) { dst.SimpleCalls = src.SimpleCalls },
	"complex-calls": func(dst *bench.Config, src bench.Config) { dst.ComplexCalls = src.ComplexCalls },
	"list-size":     func(dst *bench.Config, src bench.Config) { dst.ListSize = src.ListSize },
	"workers":       func(dst *bench.Config, src bench.Config) { dst.Workers = src.Workers },
	"label":         func(dst *bench.Config, src bench.Config) { dst.Label = src.Label },
}

// applyConfigFile loads --config and reapplies flags given explicitly.
func applyConfigFile(opts *BenchOptions, cmd *cobra.Command) error {
	if opts.ConfigFile == "" {
		return nil
	}
	cfg, err := bench.LoadConfigFile(opts.ConfigFile, bench.DefaultConfig())
	if err != nil {
		return err
	}
	for name, set := range benchFlags {
		if cmd.Flags().Changed(name) {
			set(&cfg, opts.Config)
		}
	}
	opts.Config = cfg
	return nil
}

func runBench(ctx context.Context, opts *BenchOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())

	if err := opts.Config.Validate(); err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "invalid benchmark flags", err)
	}

	surface, err := LoadSurface(opts.Surface)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to load surface", err)
	}

	// Opened before the run so a bad path fails fast.
	st, err := OpenStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to open database", err)
	}
	if st != nil {
		defer st.Close()
	}

	eng, err := NewEngine(ctx, surface, nil, logger)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to create dispatcher", err)
	}

	report, err := bench.NewRunner(eng, bench.WithLogger(logger)).Run(ctx, opts.Config)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return out.Fail(ExitFailure, ErrCodeBenchFailed, "benchmark interrupted", err)
		}
		return out.Fail(ExitFailure, ErrCodeBenchFailed, "benchmark failed", err)
	}

	result := BenchResult{Report: report}
	if st != nil {
		run, err := report.Record()
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode report", err)
		}
		stored, err := st.WriteBenchRun(ctx, run)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeStore, "failed to store report", err)
		}
		result.Stored = &stored
		out.VerboseLog("stored run %s as #%d", stored.ID, stored.Seq)
	}

	if out.IsJSON() {
		return out.Success(result)
	}

	if err := bench.Render(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if result.Stored != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\nStored as run #%d (%s)\n", result.Stored.Seq, result.Stored.ID)
	}
	return nil
}
