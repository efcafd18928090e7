package cover

import (
	"bytes"
	"os"
)

// ParseFile reads path and dispatches to the LCOV or llvm-cov JSON parser
// by sniffing its content (LCOV text starts with "TN:" or "SF:"; llvm-cov
// export is JSON). A coverage file that can't be read or recognized
// yields an empty Report (spec.md §8: "Coverage file not present →
// CoverageReport{} (empty map, 0 overall)").
func ParseFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, nil
	}
	return ParseBytes(data)
}

// ParseBytes sniffs content and dispatches to the matching parser.
func ParseBytes(content []byte) (Report, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Report{}, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ParseLLVMCovJSON(trimmed)
	}
	return ParseLCOV(string(content)), nil
}
