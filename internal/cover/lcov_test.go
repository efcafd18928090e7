package cover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLCOVBasicLineCoverage(t *testing.T) {
	content := "SF:a.c\nDA:10,2\nDA:11,0\nend_of_record\n"
	report := ParseLCOV(content)

	fc, ok := report.Files["a.c"]
	require.True(t, ok)
	require.Len(t, fc.Lines, 2)
	assert.Equal(t, LineCoverage{LineNumber: 10, ExecutionCount: 2}, fc.Lines[0])
	assert.Equal(t, LineCoverage{LineNumber: 11, ExecutionCount: 0}, fc.Lines[1])
}

func TestParseLCOVCollapsesBranchTakenCount(t *testing.T) {
	content := "SF:a.c\nBRDA:5,0,0,3\nBRDA:5,0,1,-\nend_of_record\n"
	report := ParseLCOV(content)

	fc := report.Files["a.c"]
	require.Len(t, fc.Branches, 2)
	assert.Equal(t, 1, fc.Branches[0].TakenCount)
	assert.Equal(t, 1, fc.Branches[0].TotalCount)
	assert.Equal(t, 0, fc.Branches[1].TakenCount)
}

func TestParseLCOVFunctionCounts(t *testing.T) {
	content := "SF:a.c\nFN:10,foo\nFNDA:7,foo\nend_of_record\n"
	report := ParseLCOV(content)

	fc := report.Files["a.c"]
	require.Len(t, fc.Functions, 1)
	assert.Equal(t, "foo", fc.Functions[0].Name)
	assert.Equal(t, 7, fc.Functions[0].ExecutionCount)
}

func TestParseLCOVMultipleFiles(t *testing.T) {
	content := "SF:a.c\nDA:1,1\nend_of_record\nSF:b.c\nDA:1,0\nend_of_record\n"
	report := ParseLCOV(content)

	assert.Len(t, report.Files, 2)
	assert.InDelta(t, 0.5, report.OverallLineCoverage, 0.001)
}

func TestParseBytesEmptyYieldsEmptyReport(t *testing.T) {
	report, err := ParseBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, report.Files)
	assert.Equal(t, 0.0, report.OverallLineCoverage)
}

func TestParseFileMissingYieldsEmptyReport(t *testing.T) {
	report, err := ParseFile("/nonexistent/path/coverage.info")
	require.NoError(t, err)
	assert.Empty(t, report.Files)
}
