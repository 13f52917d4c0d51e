package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader reads one scenario file.
type Loader func(path string) (*Scenario, error)

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Failed   int            `json:"failed"`
	Results  []*Result      `json:"results"`
	Failures []SuiteFailure `json:"failures,omitempty"`
}

// SuiteFailure is one scenario that failed to load, run or pass.
type SuiteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// FindScenarios lists scenario files (.yaml, .yml, .cue) under dir,
// sorted by path. A file path is returned as is.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// golden files and other fixtures live under testdata/golden
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".cue":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite loads and runs every path, collecting failures instead of
// stopping at the first.
func RunSuite(paths []string, load Loader, opts ...Option) *SuiteResult {
	res := &SuiteResult{Results: []*Result{}}
	fail := func(path string, err string) {
		res.Failed++
		res.Failures = append(res.Failures, SuiteFailure{Path: path, Error: err})
	}

	for _, path := range paths {
		res.Total++

		scenario, err := load(path)
		if err != nil {
			fail(path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}
		result, err := Run(scenario, opts...)
		if err != nil {
			fail(path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		result.Source = path
		res.Results = append(res.Results, result)
		if !result.Pass {
			fail(path, fmt.Sprintf("scenario assertions failed: %s", strings.Join(result.Errors, "; ")))
			continue
		}
		res.Passed++
	}
	return res
}
