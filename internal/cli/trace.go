package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/portmanteau/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Digest   string // optional - only runs of this scenario digest
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	Seq      int64  `json:"seq"`
	ID       string `json:"id"`
	Scenario string `json:"scenario"`
	Digest   string `json:"digest"`
}

// RunList is the output of trace without a run id.
type RunList struct {
	Runs []RunSummary `json:"runs"`
}

// String renders the listing as a table.
func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %-36s %-12s %s\n", "SEQ", "RUN", "DIGEST", "SCENARIO")
	for _, r := range l.Runs {
		fmt.Fprintf(&b, "%-6d %-36s %-12s %s\n", r.Seq, r.ID, shortID(r.Digest), r.Scenario)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Show recorded runs and witnesses",
		Long: `Show the contents of a witness ledger.

Without a run id, lists every recorded run in ledger order. With a run id,
prints that run's witnesses and the exact values each one checked.

Examples:
  portmanteau trace --db ./ledger.db
  portmanteau trace --db ./ledger.db --digest 3f1a...
  portmanteau trace --db ./ledger.db 0192c3d4-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runTrace(cmd.Context(), opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "only list runs of this scenario digest")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, runID string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// store.Open would create an empty ledger
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if runID == "" {
		return traceRuns(ctx, st, opts, formatter)
	}

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
		return WrapExitError(ExitFailure, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	witnesses, err := st.ReadWitnesses(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read witnesses", err)
	}
	view, err := newRunView(run, witnesses)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "corrupt witness", err)
	}
	return formatter.Success(view)
}

func traceRuns(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	var (
		runs []store.Run
		err  error
	)
	if opts.Digest != "" {
		runs, err = st.RunsForDigest(ctx, opts.Digest)
	} else {
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	list := RunList{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		list.Runs = append(list.Runs, RunSummary{Seq: r.Seq, ID: r.ID, Scenario: r.Scenario, Digest: r.Digest})
	}
	formatter.VerboseLog("Found %d run(s) in %s", len(list.Runs), opts.Database)
	return formatter.Success(list)
}
