package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nit-test/nit/internal/llm"
)

const defaultSemanticThreshold = 0.8

// Comparator decides whether a drift test's current output still
// matches its baseline, one implementation per ComparisonType
// (spec.md §4.11): exact string equality, regex match, JSON Schema
// validation, or cosine similarity between embeddings.
type Comparator struct {
	engine *llm.Engine
}

// NewComparator builds a Comparator backed by engine's embedding-capable
// client for semantic comparisons.
func NewComparator(engine *llm.Engine) *Comparator {
	return &Comparator{engine: engine}
}

// EmbedText proxies to the LLM engine, used both to seed a semantic
// test's baseline embedding and to embed its current output for
// comparison.
func (c *Comparator) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return c.engine.Embed(ctx, text)
}

// Compare checks current against baseline per spec's comparison type.
// similarity is non-nil only for a semantic comparison, mirroring
// DriftResult.SimilarityScore's "only semantic tests carry a score"
// shape.
func (c *Comparator) Compare(ctx context.Context, spec DriftTestSpec, baseline DriftBaseline, current string) (passed bool, similarity *float64, err error) {
	switch spec.ComparisonType {
	case ComparisonExact, "":
		return current == baseline.Output, nil, nil

	case ComparisonRegex:
		re, err := regexp.Compile(spec.ComparisonConfig.Pattern)
		if err != nil {
			return false, nil, fmt.Errorf("nit/watch: compile pattern %q: %w", spec.ComparisonConfig.Pattern, err)
		}
		return re.MatchString(current), nil, nil

	case ComparisonSchema:
		schemaLoader := gojsonschema.NewGoLoader(spec.ComparisonConfig.Schema)
		documentLoader := gojsonschema.NewStringLoader(current)
		result, err := gojsonschema.Validate(schemaLoader, documentLoader)
		if err != nil {
			return false, nil, fmt.Errorf("nit/watch: schema validate: %w", err)
		}
		return result.Valid(), nil, nil

	case ComparisonSemantic:
		embedding, err := c.EmbedText(ctx, current)
		if err != nil {
			return false, nil, fmt.Errorf("nit/watch: embed: %w", err)
		}
		sim := cosineSimilarity(baseline.Embedding, embedding)
		threshold := spec.ComparisonConfig.Threshold
		if threshold == 0 {
			threshold = defaultSemanticThreshold
		}
		return sim >= threshold, &sim, nil

	default:
		return false, nil, fmt.Errorf("nit/watch: unknown comparison type %q", spec.ComparisonType)
	}
}

func cosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// severityFor buckets a semantic similarity score into the drift
// severity the optimization-suggestion prompt names: no score at all
// is "unknown", otherwise the bucket walks critical, moderate, and
// finally minor for everything else (including a score near or above
// the pass threshold — a comparison can still have been marked failed
// by a stricter configured threshold even at high similarity).
func severityFor(score *float64) string {
	if score == nil {
		return "unknown"
	}
	switch {
	case *score < 0.5:
		return "critical"
	case *score < 0.7:
		return "moderate"
	default:
		return "minor"
	}
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return json.Valid([]byte(s))
}
