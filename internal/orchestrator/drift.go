package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nit-test/nit/internal/agent/report"
	"github.com/nit-test/nit/internal/agent/watch"
)

// DriftMode selects which of DriftWatcher's two behaviors a drift
// command run performs (spec.md §4.13: "drift: DriftWatcher in test or
// baseline mode -> report").
type DriftMode string

const (
	DriftModeTest     DriftMode = "test"
	DriftModeBaseline DriftMode = "baseline"
)

// Drift runs testsFile (relative to the project root, defaulting to
// .nit/drift-tests.yml) through DriftWatcher in the requested mode and
// ships the resulting report to the Platform sink.
func (o *Orchestrator) Drift(ctx context.Context, mode DriftMode, testsFile string) (watch.DriftReport, error) {
	if testsFile == "" {
		testsFile = filepath.Join(o.ProjectRoot, ".nit", "drift-tests.yml")
	}

	var (
		driftReport watch.DriftReport
		err         error
	)
	switch mode {
	case DriftModeBaseline:
		driftReport, err = o.driftWatcher.UpdateBaselines(ctx, testsFile)
	case DriftModeTest:
		driftReport, err = o.driftWatcher.RunDriftTests(ctx, testsFile)
	default:
		return watch.DriftReport{}, fmt.Errorf("nit/orchestrator: unknown drift mode %q", mode)
	}
	if err != nil {
		return driftReport, err
	}

	_ = o.platform.UploadDrift(ctx, driftReport)
	if driftReport.DriftDetected {
		_ = o.slack.Send(ctx, driftSummary(driftReport))
	}
	return driftReport, nil
}

func driftSummary(r watch.DriftReport) report.RunSummary {
	return report.RunSummary{
		Command:       "drift",
		StartedAt:     time.Now(),
		FinishedAt:    time.Now(),
		DriftDetected: r.DriftDetected,
		Success:       !r.DriftDetected,
		Messages:      []string{fmt.Sprintf("%d/%d drift tests failed", r.FailedTests, r.TotalTests)},
	}
}

// DriftRegistry exposes the Registry backing "function"-type drift
// endpoints so callers can register the Go functions their
// drift-tests.yml names before running Drift.
func (o *Orchestrator) DriftRegistry() *watch.Registry { return o.driftRegistry }
