package analyze

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// ChangeRisk buckets how risky a diff hunk looks, grounded on
// services/trace/diff/parse.go::assessRisk.
type ChangeRisk string

const (
	RiskLow      ChangeRisk = "low"
	RiskMedium   ChangeRisk = "medium"
	RiskHigh     ChangeRisk = "high"
	RiskCritical ChangeRisk = "critical"
)

// FileDiff is one file's changes in a diff, with line-level stats and an
// assessed risk.
type FileDiff struct {
	Path         string
	IsNew        bool
	IsDelete     bool
	LinesAdded   int
	LinesRemoved int
	Risk         ChangeRisk
}

var diffSensitivePathPatterns = []string{
	"auth", "security", "credential", "password", "secret",
	"token", "key", "cert", "crypto", "encrypt", "permission",
	"access", "login", "session",
}

func isSecuritySensitivePath(path string) bool {
	lower := strings.ToLower(path)
	for _, p := range diffSensitivePathPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// DiffAnalyzer shells out to git to compute changed files between two
// refs, then parses the unified diff to derive per-file risk — used by
// the orchestrator to decide which files need fresh or regenerated
// tests (spec.md §4.7).
type DiffAnalyzer struct{}

func NewDiffAnalyzer() *DiffAnalyzer { return &DiffAnalyzer{} }

// Diff runs `git diff baseRef...headRef` in workDir and returns one
// FileDiff per changed file.
func (a *DiffAnalyzer) Diff(ctx context.Context, workDir, baseRef, headRef string) ([]FileDiff, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--unified=3", baseRef+"..."+headRef)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nit/analyze: git diff %s...%s: %w", baseRef, headRef, err)
	}
	return parseDiffOutput(output)
}

// DiffWorkingTree runs `git diff` (no refs) for uncommitted changes.
func (a *DiffAnalyzer) DiffWorkingTree(ctx context.Context, workDir string) ([]FileDiff, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--unified=3")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nit/analyze: git diff: %w", err)
	}
	return parseDiffOutput(output)
}

func parseDiffOutput(output []byte) ([]FileDiff, error) {
	if len(strings.TrimSpace(string(output))) == 0 {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff(output)
	if err != nil {
		return nil, fmt.Errorf("nit/analyze: parsing diff: %w", err)
	}

	out := make([]FileDiff, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		fdiff := FileDiff{
			Path:     cleanDiffPath(fd.NewName),
			IsNew:    fd.OrigName == "/dev/null",
			IsDelete: fd.NewName == "/dev/null",
		}
		for _, h := range fd.Hunks {
			for _, line := range strings.Split(string(h.Body), "\n") {
				if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
					fdiff.LinesAdded++
				} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
					fdiff.LinesRemoved++
				}
			}
		}
		fdiff.Risk = assessDiffRisk(fdiff)
		out = append(out, fdiff)
	}
	return out, nil
}

func cleanDiffPath(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

func assessDiffRisk(f FileDiff) ChangeRisk {
	if f.IsDelete {
		return RiskHigh
	}
	if isSecuritySensitivePath(f.Path) {
		return RiskCritical
	}
	if f.LinesRemoved > 20 {
		return RiskHigh
	}
	if f.LinesRemoved > 5 || (f.LinesAdded > 0 && f.LinesRemoved > 0) {
		return RiskMedium
	}
	return RiskLow
}
