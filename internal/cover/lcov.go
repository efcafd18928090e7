package cover

import (
	"sort"
	"strconv"
	"strings"
)

// lcovRecord accumulates one SF:...end_of_record block's FN/FNDA/DA/BRDA
// lines before being flushed into a FileCoverage — mirrors the original
// gcov adapter's _LcovRecordState/_apply_lcov_key/_flush_lcov_record.
type lcovRecord struct {
	path string
	fns  []lcovFn
	fnda map[string]int
	da   map[int]int
	brda []lcovBranch
}

type lcovFn struct {
	line int
	name string
}

type lcovBranch struct {
	line, block, branch, taken int
}

func newLcovRecord() lcovRecord {
	return lcovRecord{fnda: map[string]int{}, da: map[int]int{}}
}

// ParseLCOV parses LCOV .info format text (from gcov/lcov/geninfo, or
// pytest-cov/vitest's --cov-report=lcov output) into a Report.
func ParseLCOV(content string) Report {
	files := map[string]FileCoverage{}
	rec := newLcovRecord()

	flush := func() {
		if rec.path == "" {
			return
		}
		files[rec.path] = buildFileCoverageLCOV(rec)
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			if line == "end_of_record" && rec.path != "" {
				flush()
				rec = newLcovRecord()
			}
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "SF":
			rec.path = value
		case "FN":
			applyLcovFN(&rec, value)
		case "FNDA":
			applyLcovFNDA(&rec, value)
		case "DA":
			applyLcovDA(&rec, value)
		case "BRDA":
			applyLcovBRDA(&rec, value)
		}
	}
	if rec.path != "" {
		flush()
	}

	return NewReport(files)
}

func applyLcovFN(rec *lcovRecord, value string) {
	lineStr, name, ok := strings.Cut(value, ",")
	if !ok {
		return
	}
	line, err := strconv.Atoi(strings.TrimSpace(lineStr))
	if err != nil {
		return
	}
	rec.fns = append(rec.fns, lcovFn{line: line, name: strings.TrimSpace(name)})
}

func applyLcovFNDA(rec *lcovRecord, value string) {
	countStr, name, ok := strings.Cut(value, ",")
	if !ok {
		return
	}
	count, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil {
		return
	}
	rec.fnda[strings.TrimSpace(name)] = count
}

func applyLcovDA(rec *lcovRecord, value string) {
	parts := strings.Split(value, ",")
	if len(parts) < 2 {
		return
	}
	line, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	count, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return
	}
	rec.da[line] = count
}

func applyLcovBRDA(rec *lcovRecord, value string) {
	parts := strings.Split(value, ",")
	if len(parts) < 4 {
		return
	}
	line, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	block, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	branch, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}
	takenStr := strings.TrimSpace(parts[3])
	taken := 0
	if takenStr != "-" {
		if v, err := strconv.Atoi(takenStr); err == nil {
			taken = v
		}
	}
	rec.brda = append(rec.brda, lcovBranch{line: line, block: block, branch: branch, taken: taken})
}

// buildFileCoverageLCOV converts one flushed record into a FileCoverage.
// Branch taken_count is collapsed to min(1, taken) with total_count
// always 1, per the original adapter's deliberate "was it ever taken"
// semantics rather than a hit-count.
func buildFileCoverageLCOV(rec lcovRecord) FileCoverage {
	lines := make([]LineCoverage, 0, len(rec.da))
	for ln, cnt := range rec.da {
		lines = append(lines, LineCoverage{LineNumber: ln, ExecutionCount: cnt})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	functions := make([]FunctionCoverage, 0, len(rec.fns))
	for _, fn := range rec.fns {
		functions = append(functions, FunctionCoverage{
			Name:           fn.name,
			LineNumber:     fn.line,
			ExecutionCount: rec.fnda[fn.name],
		})
	}

	branches := make([]BranchCoverage, 0, len(rec.brda))
	for _, b := range rec.brda {
		taken := b.taken
		if taken > 1 {
			taken = 1
		}
		branches = append(branches, BranchCoverage{
			LineNumber: b.line,
			BranchID:   b.block*1000 + b.branch,
			TakenCount: taken,
			TotalCount: 1,
		})
	}

	return FileCoverage{
		FilePath:  rec.path,
		Lines:     lines,
		Functions: functions,
		Branches:  branches,
	}
}
