package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portmanteau/internal/compiler"
	"github.com/roach88/portmanteau/internal/harness"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func requireLoadError(t *testing.T, err error) *LoadError {
	t.Helper()
	require.Error(t, err)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr), "expected *LoadError, got %T", err)
	return loadErr
}

func TestLoadScenarioFile_YAML(t *testing.T) {
	s, err := LoadScenarioFile("testdata/scenarios/drift_to_origin.yaml")
	require.NoError(t, err)
	assert.Equal(t, "drift_to_origin", s.Name)
	assert.Equal(t, harness.PathDrift, s.Sequence.Cycle[0].Kind)
}

func TestLoadScenarioFile_CUE(t *testing.T) {
	s, err := LoadScenarioFile("testdata/scenarios/drift_cue.cue")
	require.NoError(t, err)
	assert.Equal(t, "drift_cue", s.Name)
	assert.Equal(t, "-0.5", s.Sequence.Cycle[0].Offset)
}

func TestLoadScenarioFile_CUETopLevel(t *testing.T) {
	path := writeFile(t, t.TempDir(), "top.cue", `
name:        "top"
description: "scenario at the top level"
limit: {kind: "uniform"}
sequence: cycle: [{kind: "steady", measure: {kind: "uniform"}}]
assertions: [{type: "round_trip"}]
`)
	s, err := LoadScenarioFile(path)
	require.NoError(t, err)
	assert.Equal(t, "top", s.Name)
}

func TestLoadScenarioFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing yaml", filepath.Join(dir, "missing.yaml"), ErrCodeNotFound},
		{"missing cue", filepath.Join(dir, "missing.cue"), ErrCodeNotFound},
		{"unsupported", writeFile(t, dir, "s.json", "{}"), ErrCodeUnsupported},
		{"unknown yaml field", writeFile(t, dir, "typo.yaml", "name: x\nlimt: {kind: uniform}\n"), ErrCodeLoadFailed},
		{"yaml rules", writeFile(t, dir, "rules.yaml", "name: x\ndescription: d\nlimit: {kind: dirac}\n"), compiler.ErrScenarioStructure},
		{"cue syntax", writeFile(t, dir, "syntax.cue", "name: \"x\n"), ErrCodeBuildFailed},
		{"cue schema", writeFile(t, dir, "schema.cue", "name: \"x\"\n"), ErrCodeBuildFailed},
		{"cue float", "testdata/invalid/float_literal.cue", compiler.ErrFloatLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenarioFile(tt.path)
			loadErr := requireLoadError(t, err)
			assert.Equal(t, tt.code, loadErr.Code, "message: %s", loadErr.Message)
			assert.Equal(t, tt.path, loadErr.Path)
		})
	}
}

func TestLoadScenarioFile_FloatPosition(t *testing.T) {
	_, err := LoadScenarioFile("testdata/invalid/float_literal.cue")
	loadErr := requireLoadError(t, err)
	assert.Equal(t, 3, loadErr.Line())
	assert.Contains(t, loadErr.Error(), "float_literal.cue:3:")
	assert.Contains(t, loadErr.Message, "float literals are forbidden")
}

func TestLoadScenarios(t *testing.T) {
	loaded, errs := LoadScenarios("testdata/scenarios", LoadModeCollectAll)
	assert.Empty(t, errs)
	require.Len(t, loaded, 2)
	assert.Equal(t, "drift_cue", loaded[0].Scenario.Name)
	assert.Equal(t, "drift_to_origin", loaded[1].Scenario.Name)
}

func TestLoadScenarios_Modes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: [\n")
	writeFile(t, dir, "b.json.yaml", "bogus: 1\n")
	writeFile(t, dir, "c.yaml", "name: c\ndescription: d\nlimit: {kind: uniform}\n")

	loaded, errs := LoadScenarios(dir, LoadModeCollectAll)
	assert.Len(t, errs, 2)
	// decoded without the harness rules
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].Scenario.Name)

	loaded, errs = LoadScenarios(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
	assert.Empty(t, loaded)
	assert.NotNil(t, loaded)
}

func TestLoadScenarios_DirectoryErrors(t *testing.T) {
	loaded, errs := LoadScenarios("/nonexistent/scenarios", LoadModeCollectAll)
	assert.Nil(t, loaded)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNotFound, requireLoadError(t, errs[0]).Code)

	loaded, errs = LoadScenarios(t.TempDir(), LoadModeCollectAll)
	assert.Nil(t, loaded)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNoFiles, requireLoadError(t, errs[0]).Code)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode(""))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue"))
	assert.Equal(t, compiler.ErrScenarioStructure, MapFieldToErrorCode("scenario"))
	assert.Equal(t, compiler.ErrFloatLiteral, MapFieldToErrorCode("limit.at"))
}

func TestLoadErrorFormat(t *testing.T) {
	assert.Equal(t, "E005: gone", (&LoadError{Code: "E005", Message: "gone"}).Error())
	assert.Equal(t, "a.yaml: E004: bad", (&LoadError{Path: "a.yaml", Code: "E004", Message: "bad"}).Error())
	assert.Equal(t, 0, (&LoadError{}).Line())
}
