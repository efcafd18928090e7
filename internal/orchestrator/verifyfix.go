package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nit-test/nit/internal/agent/debug"
	"github.com/nit-test/nit/internal/agent/report"
)

// VerifyFixInput is what a caller — typically BugDetector's output, fed
// in by the CLI's verify-fix subcommand — supplies to run the bug-fix
// chain end to end.
type VerifyFixInput struct {
	BugReport            debug.BugReport
	ReproductionTestFile string
	Framework            string
}

// VerifyFix implements spec.md §4.13's verify-fix command: take a bug
// report -> RootCauseAnalyzer -> FixGenerator -> FixVerifier -> report.
func (o *Orchestrator) VerifyFix(ctx context.Context, in VerifyFixInput) (debug.VerificationReport, error) {
	target := in.BugReport.Location.FilePath
	src, err := os.ReadFile(target)
	if err != nil {
		return debug.VerificationReport{}, fmt.Errorf("nit/orchestrator: read %s: %w", target, err)
	}

	rootCause, err := o.rootCause.Analyze(ctx, debug.RootCauseAnalysisTask{
		Target:     target,
		BugReport:  in.BugReport,
		SourceCode: string(src),
	})
	if err != nil {
		return debug.VerificationReport{}, fmt.Errorf("nit/orchestrator: root cause analysis: %w", err)
	}

	fix, err := o.fixGenerator.Generate(ctx, debug.FixGenerationTask{
		Target:     target,
		BugReport:  in.BugReport,
		RootCause:  rootCause,
		SourceCode: string(src),
	})
	if err != nil {
		return debug.VerificationReport{}, fmt.Errorf("nit/orchestrator: fix generation: %w", err)
	}

	ad, err := o.RC.Adapters.GetTestAdapter(in.Framework)
	if err != nil {
		return debug.VerificationReport{}, fmt.Errorf("nit/orchestrator: %w", err)
	}

	verification, err := o.fixVerifier.Verify(ctx, debug.VerificationTask{
		Target:               target,
		Fix:                  fix,
		OriginalCode:         string(src),
		ReproductionTestFile: in.ReproductionTestFile,
		Adapter:              ad,
	})
	if err != nil {
		return verification, fmt.Errorf("nit/orchestrator: fix verification: %w", err)
	}

	summary := report.RunSummary{
		ProjectRoot: o.ProjectRoot, Command: "verify-fix",
		StartedAt: time.Now(), FinishedAt: time.Now(),
		BugsFound: 1, Success: verification.IsVerified,
	}
	if verification.IsVerified {
		summary.BugsFixed = 1
	}
	o.deliverFix(ctx, summary, fix, verification)
	return verification, nil
}

func (o *Orchestrator) deliverFix(ctx context.Context, summary report.RunSummary, fix debug.GeneratedFix, verification debug.VerificationReport) {
	_ = o.slack.Send(ctx, summary)
	_ = o.platform.UploadFixes(ctx, map[string]any{
		"explanation": fix.Explanation,
		"confidence":  fix.Confidence,
		"verified":    verification.IsVerified,
		"notes":       verification.Notes,
	})
}
