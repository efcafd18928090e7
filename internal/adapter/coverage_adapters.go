package adapter

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/nit-test/nit/internal/cover"
)

// lcovCoverageAdapter runs a test adapter's command with coverage
// collection enabled and parses the LCOV file it writes — the coverage
// side of pytest (--cov-report=lcov), gotest (-coverprofile), and
// vitest (--coverage with the lcov reporter). It wraps the TestAdapter
// directly rather than looking it up by name, so construction never
// needs a Registry reference.
type lcovCoverageAdapter struct {
	test       TestAdapter
	outputFile string
}

func newLcovCoverageAdapter(test TestAdapter) CoverageAdapter {
	return &lcovCoverageAdapter{
		test:       test,
		outputFile: filepath.Join(".nit", test.Name()+"-coverage.lcov"),
	}
}

func (a *lcovCoverageAdapter) Name() string     { return a.test.Name() }
func (a *lcovCoverageAdapter) Language() string { return a.test.Language() }

func (a *lcovCoverageAdapter) Detect(root string) bool {
	return a.test.Detect(root)
}

func (a *lcovCoverageAdapter) RunCoverage(ctx context.Context, projectRoot string, testFiles []string, timeout time.Duration) (cover.Report, error) {
	if _, err := a.test.RunTests(ctx, projectRoot, testFiles, timeout, true); err != nil {
		return cover.Report{}, err
	}
	return a.ParseCoverageFile(filepath.Join(projectRoot, a.outputFile))
}

func (a *lcovCoverageAdapter) ParseCoverageFile(path string) (cover.Report, error) {
	if _, err := os.Stat(path); err != nil {
		return cover.Report{}, nil
	}
	return cover.ParseFile(path)
}
