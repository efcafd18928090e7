package watch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/llm"
)

type fakeEmbedClient struct {
	vectors map[string][]float64
}

func (f *fakeEmbedClient) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Response, error) {
	return llm.Response{}, nil
}

func (f *fakeEmbedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func testEngine(client llm.Client) *llm.Engine {
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.RequestsPerMin = 6000
	cfg.LLM.MaxRetries = 0
	return llm.New(cfg, client)
}

func TestCompareExact(t *testing.T) {
	c := NewComparator(testEngine(&fakeEmbedClient{}))
	spec := DriftTestSpec{ComparisonType: ComparisonExact}
	baseline := DriftBaseline{Output: "hello drift"}

	passed, score, err := c.Compare(context.Background(), spec, baseline, "hello drift")
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Nil(t, score)

	passed, _, err = c.Compare(context.Background(), spec, baseline, "different")
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestCompareRegex(t *testing.T) {
	c := NewComparator(testEngine(&fakeEmbedClient{}))
	spec := DriftTestSpec{
		ComparisonType:   ComparisonRegex,
		ComparisonConfig: ComparisonConfig{Pattern: `version [0-9]+\.[0-9]+\.[0-9]+`},
	}
	passed, _, err := c.Compare(context.Background(), spec, DriftBaseline{}, "version 1.2.3")
	require.NoError(t, err)
	assert.True(t, passed)

	passed, _, err = c.Compare(context.Background(), spec, DriftBaseline{}, "no version here")
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestCompareSchema(t *testing.T) {
	c := NewComparator(testEngine(&fakeEmbedClient{}))
	spec := DriftTestSpec{
		ComparisonType: ComparisonSchema,
		ComparisonConfig: ComparisonConfig{
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{"type": "string"},
					"age":  map[string]any{"type": "number"},
				},
				"required": []any{"name"},
			},
		},
	}
	passed, _, err := c.Compare(context.Background(), spec, DriftBaseline{}, `{"name": "Alice", "age": 30}`)
	require.NoError(t, err)
	assert.True(t, passed)

	passed, _, err = c.Compare(context.Background(), spec, DriftBaseline{}, `{"age": 30}`)
	require.NoError(t, err)
	assert.False(t, passed)
}

func TestCompareSemanticPassesAboveThreshold(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float64{
		"The quick brown fox": {1, 1, 0},
	}}
	c := NewComparator(testEngine(client))
	spec := DriftTestSpec{
		ComparisonType:   ComparisonSemantic,
		ComparisonConfig: ComparisonConfig{Threshold: 0.7},
	}
	baseline := DriftBaseline{Embedding: []float64{1, 1, 0}}

	passed, score, err := c.Compare(context.Background(), spec, baseline, "The quick brown fox")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 1.0, *score, 0.0001)
	assert.True(t, passed)
}

func TestCompareSemanticDefaultsThreshold(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float64{
		"orthogonal": {0, 1, 0},
	}}
	c := NewComparator(testEngine(client))
	spec := DriftTestSpec{ComparisonType: ComparisonSemantic}
	baseline := DriftBaseline{Embedding: []float64{1, 0, 0}}

	passed, score, err := c.Compare(context.Background(), spec, baseline, "orthogonal")
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.InDelta(t, 0.0, *score, 0.0001)
	assert.False(t, passed)
}

func TestCosineSimilarityIdentical(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 0.0001)
}

func TestCosineSimilarityEmptyVectors(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}

func TestSeverityForBuckets(t *testing.T) {
	critical := 0.3
	moderate := 0.65
	minor := 0.85

	assert.Equal(t, "unknown", severityFor(nil))
	assert.Equal(t, "critical", severityFor(&critical))
	assert.Equal(t, "moderate", severityFor(&moderate))
	assert.Equal(t, "minor", severityFor(&minor))
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, looksLikeJSON(`{"key": "value"}`))
	assert.False(t, looksLikeJSON("plain text output"))
	assert.False(t, looksLikeJSON(""))
}
