package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/portmanteau/internal/harness"
)

// TestOptions configures the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string // glob over scenario names
}

// ScenarioResult is one line of a test report.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	RunID  string   `json:"run_id,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult is the report for a whole directory.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand returns the `test` subcommand.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run every scenario in a directory",
		Long: `Run every scenario under a directory and check its assertions.

When <dir>/golden/<name>.golden exists next to a scenario file, the
canonical witness snapshot must match it byte for byte.

Exit codes:
  0 - every scenario passed and matched its golden file
  1 - at least one scenario failed
  2 - the directory or filter could not be used

Examples:
  portmanteau test ./scenarios
  portmanteau test ./scenarios --filter "drift_*"
  portmanteau test ./scenarios --update
  portmanteau test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from this run")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	paths, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(paths) == 0 {
		if formatter.JSON() {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())
	suite := harness.RunSuite(paths, LoadScenarioFile, harness.WithLogger(logger))

	scenarios := make([]ScenarioResult, 0, suite.Total)
	for _, r := range suite.Results {
		sr := ScenarioResult{Name: r.Scenario, Path: r.Source, Pass: r.Pass, RunID: r.RunID, Errors: r.Errors}
		if r.Pass {
			if err := checkGolden(opts, r); err != nil {
				sr.Pass = false
				sr.Errors = append(sr.Errors, err.Error())
			}
		}
		scenarios = append(scenarios, sr)
	}
	// load and execution failures have no result
	ran := make(map[string]bool, len(suite.Results))
	for _, r := range suite.Results {
		ran[r.Source] = true
	}
	for _, f := range suite.Failures {
		if ran[f.Path] {
			continue
		}
		scenarios = append(scenarios, ScenarioResult{
			Name:   scenarioName(f.Path),
			Path:   f.Path,
			Errors: []string{f.Error},
		})
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Path < scenarios[j].Path })

	result := TestResult{Scenarios: scenarios, Total: len(scenarios)}
	for _, s := range scenarios {
		if s.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, opts, result)
}

// findScenarioFiles lists scenario files under dir whose base name
// (without extension) matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	paths, err := harness.FindScenarios(dir)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return paths, nil
	}
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}
	return slices.DeleteFunc(paths, func(p string) bool {
		ok, _ := filepath.Match(filter, scenarioName(p))
		return !ok
	}), nil
}

// scenarioName is the file name without directory or extension.
func scenarioName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// goldenFilePath maps dir/name.ext to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	return filepath.Join(filepath.Dir(scenarioFile), "golden", scenarioName(scenarioFile)+".golden")
}

// checkGolden writes the snapshot with --update, otherwise compares it
// against an existing golden file. A missing golden file is not an error.
func checkGolden(opts *TestOptions, result *harness.Result) error {
	snapshot, err := harness.Snapshot(result)
	if err != nil {
		return fmt.Errorf("failed to snapshot witnesses: %w", err)
	}
	path := goldenFilePath(result.Source)

	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Errorf("update golden: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("read golden: %w", err)
	case !bytes.Equal(want, snapshot):
		return fmt.Errorf("witnesses do not match %s (run with --update to regenerate)", path)
	}
	return nil
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := formatter.Failure(result, "E_TEST_FAILED", msg); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func outputTestText(formatter *OutputFormatter, opts *TestOptions, result TestResult) error {
	w := formatter.Writer
	for _, s := range result.Scenarios {
		if s.Pass {
			suffix := ""
			if opts.Update {
				suffix = " (golden updated)"
			}
			fmt.Fprintf(w, "✓ %s%s\n", s.Name, suffix)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
}
