package watch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*DriftWatcher, *Registry) {
	t.Helper()
	registry := NewRegistry()
	registry.Register("builtins", "str", func(args []any) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("no args")
		}
		return fmt.Sprint(args[0]), nil
	})
	w, err := New(t.TempDir(), testEngine(&fakeEmbedClient{}), registry)
	require.NoError(t, err)
	return w, registry
}

func echoSemanticYAML(t *testing.T) string {
	return writeDriftYAML(t, `
tests:
  - id: test_echo
    name: "Echo test"
    endpoint_type: cli
    comparison_type: exact
    endpoint_config:
      command: ["echo", "hello drift"]

  - id: test_str_convert
    name: "String conversion test"
    endpoint_type: function
    comparison_type: semantic
    endpoint_config:
      module: builtins
      function: str
      args: [123]
    comparison_config:
      threshold: 0.8
`)
}

func TestRunDriftTestsNoBaseline(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := echoSemanticYAML(t)

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalTests)
	assert.Equal(t, 0, report.PassedTests)
	assert.Equal(t, 2, report.SkippedTests)
	assert.False(t, report.DriftDetected)
}

func TestUpdateBaselines(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := echoSemanticYAML(t)

	report, err := w.UpdateBaselines(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalTests)
	assert.Equal(t, 2, report.PassedTests)
	assert.Equal(t, 0, report.SkippedTests)

	b1, ok := w.baselines.GetBaseline("test_echo")
	require.True(t, ok)
	assert.Contains(t, b1.Output, "hello drift")

	b2, ok := w.baselines.GetBaseline("test_str_convert")
	require.True(t, ok)
	assert.Equal(t, "123", b2.Output)
	assert.NotNil(t, b2.Embedding)
}

func TestRunDriftTestsWithBaselineNoDrift(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := echoSemanticYAML(t)

	_, err := w.UpdateBaselines(context.Background(), path)
	require.NoError(t, err)

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalTests)
	assert.Equal(t, 2, report.PassedTests)
	assert.Equal(t, 0, report.FailedTests)
	assert.False(t, report.DriftDetected)

	for _, r := range report.Results {
		assert.True(t, r.Passed)
		assert.True(t, r.BaselineExists)
		assert.Empty(t, r.Error)
	}
}

func TestRunDriftTestsWithDrift(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_counter
    name: "Counter test"
    endpoint_type: function
    comparison_type: exact
    endpoint_config:
      module: builtins
      function: str
      args: [100]
`)
	require.NoError(t, w.baselines.SetBaseline("test_counter", "200", nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalTests)
	assert.Equal(t, 0, report.PassedTests)
	assert.Equal(t, 1, report.FailedTests)
	assert.True(t, report.DriftDetected)

	result := report.Results[0]
	assert.False(t, result.Passed)
	assert.True(t, result.BaselineExists)
	assert.Equal(t, "100", result.Output)
}

func TestRunDriftTestsEmptyFile(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, "")

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalTests)
	assert.False(t, report.DriftDetected)
}

func TestRunDriftTestsNonexistentFile(t *testing.T) {
	w, _ := newTestWatcher(t)
	report, err := w.RunDriftTests(context.Background(), "/nonexistent/drift-tests.yml")
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalTests)
}

func TestRunDriftTestsWithTestError(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_fail
    name: "Failing test"
    endpoint_type: function
    comparison_type: exact
    endpoint_config:
      module: nonexistent_module
      function: nonexistent_function
`)
	require.NoError(t, w.baselines.SetBaseline("test_fail", "some output", nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalTests)
	assert.Equal(t, 1, report.SkippedTests)

	result := report.Results[0]
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Error)
}

func TestSemanticDriftDetection(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float64{
		"A fast brown fox":    {1, 1, 0},
		"The quick brown fox": {1, 0.95, 0},
	}}
	registry := NewRegistry()
	w, err := New(t.TempDir(), testEngine(client), registry)
	require.NoError(t, err)

	path := writeDriftYAML(t, `
tests:
  - id: test_semantic
    name: "Semantic test"
    endpoint_type: cli
    comparison_type: semantic
    endpoint_config:
      command: ["echo", "The quick brown fox"]
    comparison_config:
      threshold: 0.7
`)

	baselineEmbedding, err := w.comparator.EmbedText(context.Background(), "A fast brown fox")
	require.NoError(t, err)
	require.NoError(t, w.baselines.SetBaseline("test_semantic", "A fast brown fox", baselineEmbedding))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalTests)

	result := report.Results[0]
	require.NotNil(t, result.SimilarityScore)
	assert.True(t, result.Passed)
}

func TestRegexComparison(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_regex
    name: "Regex test"
    endpoint_type: cli
    comparison_type: regex
    endpoint_config:
      command: ["echo", "version 1.2.3"]
    comparison_config:
      pattern: 'version [0-9]+\.[0-9]+\.[0-9]+'
`)
	require.NoError(t, w.baselines.SetBaseline("test_regex", "version 1.2.3", nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalTests)
	assert.True(t, report.Results[0].Passed)
}

func TestSchemaComparison(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_schema
    name: "Schema test"
    endpoint_type: cli
    comparison_type: schema
    endpoint_config:
      command: ["echo", "{\"name\": \"Alice\", \"age\": 30}"]
    comparison_config:
      schema:
        type: object
        properties:
          name:
            type: string
          age:
            type: number
        required: ["name"]
`)
	require.NoError(t, w.baselines.SetBaseline("test_schema", `{"name": "Alice", "age": 30}`, nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalTests)
	assert.True(t, report.Results[0].Passed)
}

func TestDriftWatcherNameAndDescription(t *testing.T) {
	w, _ := newTestWatcher(t)
	assert.Equal(t, "DriftWatcher", w.Name())
	assert.Contains(t, w.Description(), "drift")
}

func TestUpdateBaselinesEmptyFile(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, "")
	report, err := w.UpdateBaselines(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalTests)
}

func TestUpdateBaselinesWithError(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_bad_baseline
    name: "Bad baseline"
    endpoint_type: function
    comparison_type: exact
    endpoint_config:
      module: nonexistent_module_xyz
      function: nonexistent_function
`)
	report, err := w.UpdateBaselines(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalTests)
	assert.Equal(t, 1, report.SkippedTests)
	assert.NotEmpty(t, report.Results[0].Error)
}

func TestDriftWithPromptOptimization(t *testing.T) {
	w, _ := newTestWatcher(t)
	path := writeDriftYAML(t, `
tests:
  - id: test_opt
    name: "Optimization test"
    endpoint_type: function
    comparison_type: exact
    endpoint_config:
      module: builtins
      function: str
      args: [100]
`)
	require.NoError(t, w.baselines.SetBaseline("test_opt", "completely different text", nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, report.DriftDetected)

	result := report.Results[0]
	assert.False(t, result.Passed)
	require.NotNil(t, result.PromptOptimization)
	assert.NotEmpty(t, result.PromptOptimization["suggestions"])
}

func TestDriftNoPromptOptimizationWhenDisabled(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.EnablePromptOptimization = false

	path := writeDriftYAML(t, `
tests:
  - id: test_no_opt
    name: "No optimization"
    endpoint_type: function
    comparison_type: exact
    endpoint_config:
      module: builtins
      function: str
      args: [42]
`)
	require.NoError(t, w.baselines.SetBaseline("test_no_opt", "different value", nil))

	report, err := w.RunDriftTests(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, report.Results[0].PromptOptimization)
}

func TestGenerateOptimizationSuggestionsCriticalSimilarity(t *testing.T) {
	w, _ := newTestWatcher(t)
	score := 0.3
	result := w.generateOptimizationSuggestions("baseline", "current", &score)
	assert.Equal(t, "critical", result["drift_severity"])
	suggestions := result["suggestions"].([]string)
	found := false
	for _, s := range suggestions {
		if contains(s, "CRITICAL") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateOptimizationSuggestionsModerateSimilarity(t *testing.T) {
	w, _ := newTestWatcher(t)
	score := 0.65
	result := w.generateOptimizationSuggestions("baseline", "current", &score)
	assert.Equal(t, "moderate", result["drift_severity"])
	suggestions := result["suggestions"].([]string)
	found := false
	for _, s := range suggestions {
		if contains(s, "MODERATE") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateOptimizationSuggestionsMinorSeverity(t *testing.T) {
	w, _ := newTestWatcher(t)
	score := 0.85
	result := w.generateOptimizationSuggestions("a b c", "a b c d", &score)
	assert.Equal(t, "minor", result["drift_severity"])
}

func TestGenerateOptimizationSuggestionsUnknownSeverityNoScore(t *testing.T) {
	w, _ := newTestWatcher(t)
	result := w.generateOptimizationSuggestions("base", "curr", nil)
	assert.Equal(t, "unknown", result["drift_severity"])
}

func TestGenerateOptimizationSuggestionsLengthDiff(t *testing.T) {
	w, _ := newTestWatcher(t)
	score := 0.6
	baseline := ""
	current := ""
	for i := 0; i < 100; i++ {
		baseline += "word "
	}
	for i := 0; i < 10; i++ {
		current += "word "
	}
	result := w.generateOptimizationSuggestions(baseline, current, &score)
	suggestions := result["suggestions"].([]string)
	found := false
	for _, s := range suggestions {
		if containsFold(s, "length") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestGenerateOptimizationSuggestionsFormatChange(t *testing.T) {
	w, _ := newTestWatcher(t)
	score := 0.4
	result := w.generateOptimizationSuggestions(`{"key": "value"}`, "plain text output", &score)
	suggestions := result["suggestions"].([]string)
	found := false
	for _, s := range suggestions {
		if containsFold(s, "format") {
			found = true
		}
	}
	assert.True(t, found)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
