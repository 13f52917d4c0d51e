package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyScenario copies a testdata scenario into dir.
func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return writeFile(t, dir, name, string(data))
}

func TestTestCommand_Passes(t *testing.T) {
	out, _, err := execute(t, "test", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ drift_cue")
	assert.Contains(t, out, "✓ drift_to_origin")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", "testdata/scenarios")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "drift_cue", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "test-run-1", resp.Data.Scenarios[0].RunID)
}

func TestTestCommand_Filter(t *testing.T) {
	out, _, err := execute(t, "test", "testdata/scenarios", "--filter", "drift_c*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "drift_to_origin")

	_, _, err = execute(t, "test", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_Failures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong_mass.yaml", wrongMassYAML)
	writeFile(t, dir, "broken.yaml", "name: [\n")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "✗ wrong_mass")
	assert.Contains(t, out, "Test Summary: 0 passed, 2 failed, 2 total")

	out, _, err = execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, "2 scenario(s) failed", resp.Error.Message)
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "drift_to_origin.yaml")
	goldenDir := filepath.Join(dir, "golden")
	require.NoError(t, os.MkdirAll(goldenDir, 0755))
	golden := writeFile(t, goldenDir, "drift_to_origin.golden", "{}")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "witnesses do not match")

	out, _, err = execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ drift_to_origin (golden updated)")

	want, err := os.ReadFile("testdata/scenarios/golden/drift_to_origin.golden")
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)
}

func TestTestCommand_UpdateCreatesGoldenDir(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, "drift_cue.cue")

	_, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "golden", "drift_cue.golden"))
}

func TestTestCommand_Empty(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	out, _, err = execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")

	_, _, err = execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "drift.golden"), goldenFilePath(filepath.Join("s", "drift.yaml")))
	assert.Equal(t, filepath.Join("golden", "x.golden"), goldenFilePath("x.cue"))
}
