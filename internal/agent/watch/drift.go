package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nit-test/nit/internal/llm"
)

const defaultBaselinesDir = "drift-baselines"

// DriftWatcher runs the tests named in a project's drift-tests.yml,
// either to capture fresh baselines or to compare current output
// against previously captured ones (spec.md §4.11).
type DriftWatcher struct {
	projectRoot string
	baselines   *BaselinesManager
	comparator  *Comparator
	executor    *Executor

	// EnablePromptOptimization controls whether a failed comparison also
	// produces drift-severity suggestions (disabled, run() just reports
	// the failure with no suggestions).
	EnablePromptOptimization bool
}

// New builds a DriftWatcher rooted at projectRoot, persisting baselines
// one file per test id under projectRoot/.nit/drift-baselines/.
func New(projectRoot string, engine *llm.Engine, registry *Registry) (*DriftWatcher, error) {
	baselines, err := NewBaselinesManager(filepath.Join(projectRoot, ".nit", defaultBaselinesDir))
	if err != nil {
		return nil, err
	}
	return &DriftWatcher{
		projectRoot:              projectRoot,
		baselines:                baselines,
		comparator:               NewComparator(engine),
		executor:                 NewExecutor(registry),
		EnablePromptOptimization: true,
	}, nil
}

func (w *DriftWatcher) Name() string { return "DriftWatcher" }

func (w *DriftWatcher) Description() string {
	return "detects behavioral drift in monitored endpoints against stored baselines"
}

// RunDriftTests executes every test in testsFile in comparison mode.
func (w *DriftWatcher) RunDriftTests(ctx context.Context, testsFile string) (DriftReport, error) {
	specs, err := ParseDriftTests(testsFile)
	if err != nil {
		return DriftReport{}, err
	}

	report := DriftReport{TotalTests: len(specs)}
	for _, spec := range specs {
		result := w.runOne(ctx, spec)
		report.Results = append(report.Results, result)

		switch {
		case result.Error != "":
			report.SkippedTests++
		case result.Passed:
			report.PassedTests++
		default:
			report.FailedTests++
		}
	}
	report.DriftDetected = report.FailedTests > 0
	return report, nil
}

func (w *DriftWatcher) runOne(ctx context.Context, spec DriftTestSpec) DriftResult {
	result := DriftResult{TestID: spec.ID, Name: spec.Name}

	output, err := w.executor.Execute(ctx, spec)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Output = output

	baseline, exists := w.baselines.GetBaseline(spec.ID)
	result.BaselineExists = exists
	if !exists {
		result.Error = "no_baseline"
		return result
	}

	passed, similarity, err := w.comparator.Compare(ctx, spec, baseline, output)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Passed = passed
	result.SimilarityScore = similarity

	if !passed && w.EnablePromptOptimization {
		result.PromptOptimization = w.generateOptimizationSuggestions(baseline.Output, output, similarity)
	}
	return result
}

// UpdateBaselines executes every test in testsFile and stores its
// output as the new baseline. Unlike RunDriftTests, a baseline update
// never reports drift — an execution error still counts as skipped,
// but a successful run is always recorded as passed, never failed.
func (w *DriftWatcher) UpdateBaselines(ctx context.Context, testsFile string) (DriftReport, error) {
	specs, err := ParseDriftTests(testsFile)
	if err != nil {
		return DriftReport{}, err
	}

	report := DriftReport{TotalTests: len(specs)}
	for _, spec := range specs {
		result := DriftResult{TestID: spec.ID, Name: spec.Name}

		output, err := w.executor.Execute(ctx, spec)
		if err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)
			report.SkippedTests++
			continue
		}
		result.Output = output

		var embedding []float64
		if spec.ComparisonType == ComparisonSemantic {
			embedding, err = w.comparator.EmbedText(ctx, output)
			if err != nil {
				result.Error = err.Error()
				report.Results = append(report.Results, result)
				report.SkippedTests++
				continue
			}
		}

		if err := w.baselines.SetBaseline(spec.ID, output, embedding); err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)
			report.SkippedTests++
			continue
		}

		result.Passed = true
		result.BaselineExists = true
		report.Results = append(report.Results, result)
		report.PassedTests++
	}
	return report, nil
}

// generateOptimizationSuggestions explains why a comparison failed and
// how badly, sized to the semantic similarity score when one exists
// (spec.md §4.11): a severity bucket plus any extra signals the two
// outputs' shapes disagree on length or structure.
func (w *DriftWatcher) generateOptimizationSuggestions(baseline, current string, score *float64) map[string]any {
	severity := severityFor(score)
	var suggestions []string

	switch severity {
	case "critical":
		suggestions = append(suggestions, fmt.Sprintf(
			"CRITICAL: output diverged sharply from baseline (similarity %.2f); review the prompt and few-shot examples", deref(score)))
	case "moderate":
		suggestions = append(suggestions, fmt.Sprintf(
			"MODERATE: output drifted from baseline (similarity %.2f); consider tightening the prompt's output format instructions", deref(score)))
	case "minor":
		if score != nil {
			suggestions = append(suggestions, fmt.Sprintf(
				"minor drift from baseline (similarity %.2f); likely acceptable variation, but worth spot-checking", *score))
		}
	case "unknown":
		suggestions = append(suggestions, "comparison failed with no similarity score available; inspect the raw outputs directly")
	}

	baseWords := strings.Fields(baseline)
	currentWords := strings.Fields(current)
	if len(baseWords) > 0 {
		diff := absInt(len(baseWords) - len(currentWords))
		if float64(diff)/float64(len(baseWords)) > 0.5 {
			suggestions = append(suggestions, fmt.Sprintf(
				"output length changed substantially (%d words -> %d words); the prompt may be asking for more or less detail than before",
				len(baseWords), len(currentWords)))
		}
	}

	if looksLikeJSON(baseline) != looksLikeJSON(current) {
		suggestions = append(suggestions, "output format changed between structured and unstructured; check whether the prompt's format instructions still apply")
	}

	return map[string]any{
		"drift_severity": severity,
		"suggestions":    suggestions,
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
