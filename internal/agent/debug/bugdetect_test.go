package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nit-test/nit/internal/adapter"
)

func TestBugDetectorSkipsPassedAndSkippedCases(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_ok", Passed: true},
		{Name: "test_skipped", Skipped: true},
	}}
	reports := NewBugDetector().Detect(result, "app.py")
	assert.Empty(t, reports)
}

func TestBugDetectorClassifiesNullDereference(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_fetch", Message: `Cannot read property 'x' of null at File "src/app.py", line 12`},
	}}
	reports := NewBugDetector().Detect(result, "app.py")
	assert := assert.New(t)
	if assert.Len(reports, 1) {
		assert.Equal(BugTypeNullDereference, reports[0].BugType)
		assert.Equal("src/app.py", reports[0].Location.FilePath)
		assert.Equal(12, reports[0].Location.LineNumber)
	}
}

func TestBugDetectorClassifiesIndexError(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_lookup", Message: "IndexError: list index out of range"},
	}}
	reports := NewBugDetector().Detect(result, "app.py")
	if assert.Len(t, reports, 1) {
		assert.Equal(t, BugTypeIndexError, reports[0].BugType)
	}
}

func TestBugDetectorDefaultsToLogicError(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_weird", Message: "assertion failed: expected 4 got 5"},
	}}
	reports := NewBugDetector().Detect(result, "app.py")
	if assert.Len(t, reports, 1) {
		assert.Equal(t, BugTypeLogicError, reports[0].BugType)
	}
}

func TestBugDetectorFallsBackToGivenFilePath(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_it", Message: "AssertionError: mismatch"},
	}}
	reports := NewBugDetector().Detect(result, "src/util.py")
	if assert.Len(t, reports, 1) {
		assert.Equal(t, "src/util.py", reports[0].Location.FilePath)
	}
}

func TestBugDetectorMarksPanicCritical(t *testing.T) {
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test_crash", Message: "panic: runtime error: invalid memory address or nil pointer dereference"},
	}}
	reports := NewBugDetector().Detect(result, "app.go")
	if assert.Len(t, reports, 1) {
		assert.Equal(t, BugSeverityCritical, reports[0].Severity)
	}
}
