package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/portmanteau/internal/harness"
	"github.com/roach88/portmanteau/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string // optional - persist the run in this ledger
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <scenario>",
		Short: "Verify one scenario and print its witnesses",
		Long: `Verify one scenario (.yaml, .yml or .cue).

Derives the liminf, limsup and pointwise witnesses for the scenario's
target sets, checks the extra open and closed families and evaluates
the assertions. With --db the run is appended to a SQLite ledger;
otherwise an in-memory ledger is used.

Exit codes:
  0 - Derivation succeeded and every assertion held
  1 - A criterion or assertion failed
  2 - Command error (unreadable scenario, database error, etc.)

Examples:
  portmanteau verify scenarios/drift.yaml
  portmanteau verify scenarios/drift.cue --db ./ledger.db
  portmanteau verify scenarios/drift.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger (default: in-memory)")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := LoadScenarioFile(path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded scenario %s from %s", scenario.Name, path)

	hopts := []harness.Option{harness.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter()))}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		last, err := st.LastSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read ledger", err)
		}
		formatter.VerboseLog("Resuming ledger %s at seq %d", opts.Database, last)
		hopts = append(hopts, harness.WithStore(st, store.NewClockAt(last), store.UUIDv7Generator{}))
	}

	result, err := harness.Run(scenario, hopts...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario could not be run", err)
	}

	view, err := resultView(result)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to render witnesses", err)
	}

	if !result.Pass {
		msg := fmt.Sprintf("scenario %s failed", result.Scenario)
		if formatter.JSON() {
			if err := formatter.Failure(view, ErrCodeGeneric, msg); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(formatter.Writer, view)
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(view)
}

// resultView renders a harness result with its stored witnesses.
func resultView(result *harness.Result) (RunView, error) {
	view, err := newRunView(store.Run{
		ID:       result.RunID,
		Scenario: result.Scenario,
		Digest:   result.Digest,
		Seq:      result.Seq,
	}, result.Witnesses)
	if err != nil {
		return RunView{}, err
	}
	pass := result.Pass
	view.Pass = &pass
	view.Errors = result.Errors
	return view, nil
}

// reportLoadError writes a load failure and returns the command error.
func reportLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to load scenario", err)
}
