package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/nit-test/nit/internal/agent/analyze"
	"github.com/nit-test/nit/internal/agent/report"
)

// FileFinding pairs a SecurityFinding with the file it was found in —
// SecurityAnalyzer.Analyze scopes a finding to the content it was
// handed, which may be a single function body, so it never names a
// file itself.
type FileFinding struct {
	FilePath string
	analyze.SecurityFinding
}

// AuditResult is the audit command's output: every SecurityFinding
// across the scanned source tree, plus the RunSummary shipped to
// reporters.
type AuditResult struct {
	Findings []FileFinding
	Summary  report.RunSummary
}

// Audit implements spec.md §4.13's audit command: SecurityAnalyzer ->
// report. language selects which source-file extensions are scanned;
// pass "" to fall back to the project's detected primary language.
func (o *Orchestrator) Audit(ctx context.Context, language string) (AuditResult, error) {
	summary := report.RunSummary{ProjectRoot: o.ProjectRoot, Command: "audit", StartedAt: time.Now()}

	if language == "" {
		stack := o.stackDetector.Detect(o.ProjectRoot)
		language = stack.PrimaryLanguage
	}

	var findings []FileFinding
	for _, path := range sourceFilesForLanguage(o.ProjectRoot, language) {
		select {
		case <-ctx.Done():
			summary.FinishedAt = time.Now()
			return AuditResult{Findings: findings, Summary: summary}, ctx.Err()
		default:
		}

		src, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, f := range o.securityAnalyzer.Analyze(string(src), "", 0) {
			findings = append(findings, FileFinding{FilePath: path, SecurityFinding: f})
		}
	}

	summary.SecurityFindings = len(findings)
	summary.Success = true
	summary.FinishedAt = time.Now()

	result := AuditResult{Findings: findings, Summary: summary}
	_ = o.slack.Send(ctx, summary)
	_ = o.platform.UploadSecurity(ctx, findings)
	return result, nil
}
