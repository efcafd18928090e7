package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nit-test/nit/internal/agent/watch"
)

func TestDriftSummaryReflectsFailures(t *testing.T) {
	summary := driftSummary(watch.DriftReport{
		TotalTests:    5,
		PassedTests:   3,
		FailedTests:   2,
		DriftDetected: true,
	})
	assert.Equal(t, "drift", summary.Command)
	assert.True(t, summary.DriftDetected)
	assert.False(t, summary.Success)
	assert.Contains(t, summary.Messages[0], "2/5 drift tests failed")
}

func TestDriftSummaryNoDrift(t *testing.T) {
	summary := driftSummary(watch.DriftReport{TotalTests: 3, PassedTests: 3})
	assert.False(t, summary.DriftDetected)
	assert.True(t, summary.Success)
}

func TestDriftRegistryAccessor(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	assert.Same(t, orch.driftRegistry, orch.DriftRegistry())
}

func TestDriftUnknownModeErrors(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	_, err := orch.Drift(context.Background(), DriftMode("bogus"), "")
	assert.Error(t, err)
}
