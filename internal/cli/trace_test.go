package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedLedger verifies the drift scenario twice into a fresh ledger and
// returns the database path and both run views.
func seedLedger(t *testing.T) (string, []RunView) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "ledger.db")
	var runs []RunView
	for _, path := range []string{"testdata/scenarios/drift_to_origin.yaml", "testdata/scenarios/drift_cue.cue"} {
		out, _, err := execute(t, "--format", "json", "verify", path, "--db", db)
		require.NoError(t, err)
		runs = append(runs, decodeRun(t, out).Data)
	}
	return db, runs
}

func TestTrace_ListRuns(t *testing.T) {
	db, runs := seedLedger(t)

	out, _, err := execute(t, "--format", "json", "trace", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string  `json:"status"`
		Data   RunList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, RunSummary{Seq: 1, ID: runs[0].ID, Scenario: "drift_to_origin", Digest: runs[0].Digest}, resp.Data.Runs[0])
	assert.Equal(t, RunSummary{Seq: 5, ID: runs[1].ID, Scenario: "drift_cue", Digest: runs[1].Digest}, resp.Data.Runs[1])

	out, _, err = execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, runs[0].ID)
	assert.Contains(t, out, "drift_cue")
}

func TestTrace_Digest(t *testing.T) {
	db, runs := seedLedger(t)

	out, _, err := execute(t, "trace", "--db", db, "--digest", runs[1].Digest)
	require.NoError(t, err)
	assert.Contains(t, out, runs[1].ID)
	assert.NotContains(t, out, runs[0].ID)

	out, _, err = execute(t, "trace", "--db", db, "--digest", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestTrace_Run(t *testing.T) {
	db, runs := seedLedger(t)

	out, _, err := execute(t, "--format", "json", "trace", "--db", db, runs[1].ID)
	require.NoError(t, err)
	resp := decodeRun(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Data.Pass)
	assert.Equal(t, runs[1].Witnesses, resp.Data.Witnesses)

	out, _, err = execute(t, "trace", "--db", db, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "• drift_to_origin")
	assert.Contains(t, out, "[0,0.5)")
}

func TestTrace_Errors(t *testing.T) {
	db, _ := seedLedger(t)

	out, _, err := execute(t, "trace", "--db", db, "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "run not found: no-such-run")

	_, _, err = execute(t, "trace", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
