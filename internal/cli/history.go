package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ffibench/internal/bench"
	"github.com/roach88/ffibench/internal/ir"
	"github.com/roach88/ffibench/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	ID       string
}

// HistoryEntry is one stored run in JSON output.
type HistoryEntry struct {
	Seq           int64         `json:"seq"`
	ID            string        `json:"id"`
	Label         string        `json:"label,omitempty"`
	Digest        string        `json:"digest"`
	InternalNanos string        `json:"internal_ns"`
	Report        *bench.Report `json:"report,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored benchmark runs",
		Long: `List benchmark runs stored by 'ffibench bench --db'.

Runs are listed newest first. With --id the full report of one run is
printed instead.

Exit codes:
  0 - Success
  2 - Command error (database not found, unknown run ID, etc.)

Examples:
  ffibench history --db ./bench.db
  ffibench history --db ./bench.db --limit 5 --format json
  ffibench history --db ./bench.db --id 0192f0c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show the full report of this run")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := OpenStore(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, loadErrorCode(err), "failed to open database", err)
	}
	defer st.Close()

	if opts.ID != "" {
		return showRun(ctx, st, opts.ID, out, cmd)
	}

	runs, err := st.ListBenchRuns(ctx, opts.Limit)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}

	if out.IsJSON() {
		entries := make([]HistoryEntry, len(runs))
		for i, run := range runs {
			entries[i] = historyEntry(run, nil)
		}
		return out.Success(map[string]any{"runs": entries})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No benchmark runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tLABEL\tINTERNAL NS")
	for _, run := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", run.Seq, run.ID, run.Label, run.InternalNanos)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, id string, out *OutputFormatter, cmd *cobra.Command) error {
	run, err := st.GetBenchRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no run with id %s", id), nil)
	}
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
	}

	report, err := bench.ParseReport(run.Report)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "stored report is corrupt", err)
	}

	if out.IsJSON() {
		return out.Success(historyEntry(run, report))
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Stored run #%d, digest %s\n\n", run.Seq, run.Digest)
	return bench.Render(w, report)
}

func historyEntry(run ir.BenchRun, report *bench.Report) HistoryEntry {
	return HistoryEntry{
		Seq:           run.Seq,
		ID:            run.ID,
		Label:         run.Label,
		Digest:        run.Digest,
		InternalNanos: run.InternalNanos,
		Report:        report,
	}
}
