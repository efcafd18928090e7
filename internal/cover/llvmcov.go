package cover

import (
	"encoding/json"
	"sort"
)

// llvmCovExport mirrors the shape `llvm-cov export` (or `gcovr
// --json-summary`-style tools) emit: a top-level "data" array of export
// blocks, each holding a "files" array. Segments/branches inside a file
// are heterogeneous JSON arrays (`[line, col, count, hasCount, ...]`),
// so they're decoded as [][]json.Number rather than a fixed struct.
type llvmCovExport struct {
	Data []llvmCovDataBlock `json:"data"`
}

type llvmCovDataBlock struct {
	Files []llvmCovFile `json:"files"`
}

type llvmCovFile struct {
	Filename  string            `json:"filename"`
	Segments  [][]json.Number   `json:"segments"`
	Functions []llvmCovFunction `json:"functions"`
	Branches  [][]json.Number   `json:"branches"`
}

type llvmCovFunction struct {
	Name    string          `json:"name"`
	Regions [][]json.Number `json:"regions"`
}

const (
	llvmSegmentLineIdx  = 0
	llvmSegmentCountIdx = 2
	llvmSegmentMinLen   = 3
	llvmRegionCountIdx  = 3
	llvmBranchMinLen    = 4
	llvmBranchTakenIdx  = 3
)

// ParseLLVMCovJSON parses an `llvm-cov export -format=text` (or
// equivalent) JSON document into a Report. Unlike LCOV's BRDA records,
// llvm-cov branch entries carry their own taken count directly rather
// than a boolean taken/not-taken flag, so it's preserved as-is here
// (total_count fixed at 1, matching the original adapter).
func ParseLLVMCovJSON(content []byte) (Report, error) {
	var doc llvmCovExport
	if err := json.Unmarshal(content, &doc); err != nil {
		return Report{}, err
	}

	files := map[string]FileCoverage{}
	for _, block := range doc.Data {
		for _, f := range block.Files {
			if f.Filename == "" {
				continue
			}
			files[f.Filename] = fileCoverageFromLLVMCov(f)
		}
	}
	return NewReport(files), nil
}

func jsonNumToInt(n json.Number) int {
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(v)
}

func fileCoverageFromLLVMCov(f llvmCovFile) FileCoverage {
	lineCounts := map[int]int{}
	for _, seg := range f.Segments {
		if len(seg) < llvmSegmentMinLen {
			continue
		}
		line := jsonNumToInt(seg[llvmSegmentLineIdx])
		count := 0
		if len(seg) > llvmSegmentCountIdx {
			count = jsonNumToInt(seg[llvmSegmentCountIdx])
		}
		lineCounts[line] += count
	}
	lines := make([]LineCoverage, 0, len(lineCounts))
	for ln, cnt := range lineCounts {
		lines = append(lines, LineCoverage{LineNumber: ln, ExecutionCount: cnt})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	functions := make([]FunctionCoverage, 0, len(f.Functions))
	for _, fn := range f.Functions {
		count, line := 0, 0
		if len(fn.Regions) > 0 {
			region := fn.Regions[0]
			if len(region) > 0 {
				line = jsonNumToInt(region[0])
			}
			if len(region) > llvmRegionCountIdx {
				count = jsonNumToInt(region[llvmRegionCountIdx])
			}
		}
		functions = append(functions, FunctionCoverage{Name: fn.Name, LineNumber: line, ExecutionCount: count})
	}

	branches := make([]BranchCoverage, 0, len(f.Branches))
	for _, br := range f.Branches {
		if len(br) < llvmBranchMinLen {
			continue
		}
		line := jsonNumToInt(br[0])
		taken := 0
		if len(br) > llvmBranchTakenIdx {
			taken = jsonNumToInt(br[llvmBranchTakenIdx])
		}
		branches = append(branches, BranchCoverage{LineNumber: line, BranchID: 0, TakenCount: taken, TotalCount: 1})
	}

	return FileCoverage{FilePath: f.Filename, Lines: lines, Functions: functions, Branches: branches}
}
