package adapter

import (
	"context"
	"time"

	"github.com/nit-test/nit/internal/cover"
)

// CaseResult is the outcome of one test case inside a RunResult.
type CaseResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}

// RunResult is the outcome of executing one adapter's test suite
// (spec.md §3 data model, §4.2 execution contract).
type RunResult struct {
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errors     int           `json:"errors"`
	Total      int           `json:"total"`
	Cases      []CaseResult  `json:"cases,omitempty"`
	RawOutput  string        `json:"raw_output,omitempty"`
	Success    bool          `json:"success"`
	Coverage   *cover.Report `json:"coverage,omitempty"`
	DurationMS int64         `json:"duration_ms"`
}

// ValidationResult is the outcome of validating generated test code before
// it's written to disk (syntax check, import resolution, lint pass).
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Template is a prompt template: a system preamble plus a body with
// placeholders the builder fills from AssembledContext.
type Template struct {
	System string
	Body   string
}

// TestAdapter is the capability set spec.md §4.2 names: detection, glob
// patterns, prompt templates, execution, and validation for one test
// framework.
type TestAdapter interface {
	Name() string
	Language() string
	Detect(projectRoot string) bool
	TestPattern() []string
	PromptTemplate() Template
	RunTests(ctx context.Context, projectRoot string, testFiles []string, timeout time.Duration, collectCoverage bool) (RunResult, error)
	Validate(code string) ValidationResult
}

// CoverageAdapter is the parallel coverage-side capability set
// (spec.md §4.2: "run_coverage(project_root, test_files?, timeout)
// →CoverageReport, parse_coverage_file(path)→CoverageReport").
type CoverageAdapter interface {
	Name() string
	Language() string
	Detect(projectRoot string) bool
	RunCoverage(ctx context.Context, projectRoot string, testFiles []string, timeout time.Duration) (cover.Report, error)
	ParseCoverageFile(path string) (cover.Report, error)
}
