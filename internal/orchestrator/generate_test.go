package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/agent/analyze"
)

func TestGenerateDryRunSkipsBuilders(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	summary, err := orch.Generate(context.Background(), GenerateOptions{Framework: "gotest", DryRun: true})
	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Zero(t, summary.TestsGenerated)
	assert.Contains(t, summary.Messages, "dry run: no builders were dispatched")
}

func TestCollectGapsRanksCriticalFirst(t *testing.T) {
	gaps := []analyze.FunctionGap{
		{Name: "low", Priority: analyze.GapPriorityLow},
		{Name: "critical", Priority: analyze.GapPriorityCritical},
		{Name: "medium", Priority: analyze.GapPriorityMedium},
	}
	want := []int{gapRank(gaps[1]), gapRank(gaps[2]), gapRank(gaps[0])}
	assert.Equal(t, []int{0, 2, 3}, want)
}

func TestGapRankOrdering(t *testing.T) {
	assert.Less(t, gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityCritical}), gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityHigh}))
	assert.Less(t, gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityHigh}), gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityMedium}))
	assert.Less(t, gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityMedium}), gapRank(analyze.FunctionGap{Priority: analyze.GapPriorityLow}))
}

func TestCollectGapsFindsFunctionsInSampleSource(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	gaps := orch.collectGaps(context.Background(), "go")
	var names []string
	for _, g := range gaps {
		names = append(names, g.Name)
	}
	assert.Contains(t, names, "Add")
	assert.Contains(t, names, "Divide")
}
