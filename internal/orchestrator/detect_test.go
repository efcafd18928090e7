package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/agent/detect"
)

func TestDetectRunsEveryDetectorConcurrently(t *testing.T) {
	orch, _ := newTestOrchestrator(t)

	result, err := orch.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "go", result.Stack.PrimaryLanguage)
}

func TestPrimaryFrameworkPicksHighestConfidence(t *testing.T) {
	result := DetectionResult{
		Frameworks: detect.FrameworkProfile{
			Frameworks: []detect.DetectedFramework{
				{Name: "pytest", Language: "python", Confidence: 0.4},
				{Name: "gotest", Language: "go", Confidence: 0.9},
			},
		},
	}
	name, lang, ok := result.PrimaryFramework()
	assert.True(t, ok)
	assert.Equal(t, "gotest", name)
	assert.Equal(t, "go", lang)
}

func TestPrimaryFrameworkNoneDetected(t *testing.T) {
	name, lang, ok := DetectionResult{}.PrimaryFramework()
	assert.False(t, ok)
	assert.Empty(t, name)
	assert.Empty(t, lang)
}
