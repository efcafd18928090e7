package cover

// LineCoverage is the hit count of one source line.
type LineCoverage struct {
	LineNumber     int `json:"line_number"`
	ExecutionCount int `json:"execution_count"`
}

// FunctionCoverage is the hit count of one function's entry line.
type FunctionCoverage struct {
	Name           string `json:"name"`
	LineNumber     int    `json:"line_number"`
	ExecutionCount int    `json:"execution_count"`
}

// BranchCoverage is one LCOV BRDA record: a (block, branch) pair at a
// line, collapsed to taken/not-taken (spec.md's resolved Open Question:
// taken_count is min(1, taken), total_count is always 1 — branch
// coverage here answers "was this branch ever taken", not "how many
// times", matching the original gcov adapter's _build_file_coverage_lcov).
type BranchCoverage struct {
	LineNumber int `json:"line_number"`
	BranchID   int `json:"branch_id"`
	TakenCount int `json:"taken_count"`
	TotalCount int `json:"total_count"`
}

// FileCoverage is the full coverage picture for one source file.
type FileCoverage struct {
	FilePath  string             `json:"file_path"`
	Lines     []LineCoverage     `json:"lines"`
	Functions []FunctionCoverage `json:"functions"`
	Branches  []BranchCoverage   `json:"branches"`
}

// LineCoveragePct returns the fraction of lines with ExecutionCount > 0,
// or 0 if there are no lines.
func (f FileCoverage) LineCoveragePct() float64 {
	if len(f.Lines) == 0 {
		return 0
	}
	hit := 0
	for _, l := range f.Lines {
		if l.ExecutionCount > 0 {
			hit++
		}
	}
	return float64(hit) / float64(len(f.Lines))
}

// FunctionCoveragePct returns the fraction of functions with
// ExecutionCount > 0, or 0 if there are no functions.
func (f FileCoverage) FunctionCoveragePct() float64 {
	if len(f.Functions) == 0 {
		return 0
	}
	hit := 0
	for _, fn := range f.Functions {
		if fn.ExecutionCount > 0 {
			hit++
		}
	}
	return float64(hit) / float64(len(f.Functions))
}

// BranchCoveragePct returns the fraction of taken branches, or 0 if
// there are no branches.
func (f FileCoverage) BranchCoveragePct() float64 {
	if len(f.Branches) == 0 {
		return 0
	}
	taken, total := 0, 0
	for _, b := range f.Branches {
		taken += b.TakenCount
		total += b.TotalCount
	}
	if total == 0 {
		return 0
	}
	return float64(taken) / float64(total)
}

// Report is the unified CoverageReport spec.md §3 names: a map of file
// path to FileCoverage plus overall rollups. 0 ≤ every rollup ≤ 1.
type Report struct {
	Files                   map[string]FileCoverage `json:"files"`
	OverallLineCoverage     float64                 `json:"overall_line_coverage"`
	OverallFunctionCoverage float64                 `json:"overall_function_coverage"`
	OverallBranchCoverage   float64                 `json:"overall_branch_coverage"`
}

// NewReport builds a Report from parsed per-file coverage, computing
// the three overall rollups across every file's lines/functions/branches
// combined (not an average-of-averages, to avoid weighting small files
// equally with large ones).
func NewReport(files map[string]FileCoverage) Report {
	r := Report{Files: files}
	if len(files) == 0 {
		return r
	}

	var lineHit, lineTotal, fnHit, fnTotal, brTaken, brTotal int
	for _, f := range files {
		for _, l := range f.Lines {
			lineTotal++
			if l.ExecutionCount > 0 {
				lineHit++
			}
		}
		for _, fn := range f.Functions {
			fnTotal++
			if fn.ExecutionCount > 0 {
				fnHit++
			}
		}
		for _, b := range f.Branches {
			brTaken += b.TakenCount
			brTotal += b.TotalCount
		}
	}

	if lineTotal > 0 {
		r.OverallLineCoverage = float64(lineHit) / float64(lineTotal)
	}
	if fnTotal > 0 {
		r.OverallFunctionCoverage = float64(fnHit) / float64(fnTotal)
	}
	if brTotal > 0 {
		r.OverallBranchCoverage = float64(brTaken) / float64(brTotal)
	}
	return r
}
