package detect

import (
	"context"
	"math"
	"sort"

	"github.com/nit-test/nit/internal/config"
)

// breadthBonusStep is the per-distinct-signal-type increment applied on
// top of a rule's single highest-weight match (capped by
// config.DetectionConfig.BreadthBonusCap). Grounded on the original
// FrameworkDetector's _evaluate_rule: max_weight + min((n-1)*0.02, cap).
const breadthBonusStep = 0.02

// FrameworkDetector scores a project's source tree against a table of
// FrameworkRules and reports which test frameworks are in use, with a
// confidence per spec.md §4.3's signal/weight model.
type FrameworkDetector struct {
	rules  []FrameworkRule
	detect config.DetectionConfig
}

func NewFrameworkDetector(detection config.DetectionConfig) *FrameworkDetector {
	return &FrameworkDetector{rules: builtinRules(), detect: detection}
}

// Detect evaluates every rule against root and returns the resolved,
// min-confidence-filtered profile (spec.md §4.3 steps: evaluate rules,
// resolve language/category conflicts, filter by MinConfidence).
func (d *FrameworkDetector) Detect(_ context.Context, root string) FrameworkProfile {
	pf := newProjectFiles(root)

	var all []DetectedFramework
	for _, rule := range d.rules {
		df := evaluateRule(rule, pf, d.detect.BreadthBonusCap)
		if df.MatchedAny {
			all = append(all, df)
		}
	}

	resolved := resolveConflicts(all)

	var kept []DetectedFramework
	for _, df := range resolved {
		if df.Confidence >= d.detect.MinConfidence {
			kept = append(kept, df)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })

	return FrameworkProfile{Root: root, Frameworks: kept}
}

// NeedsLLMFallback returns the detected frameworks whose confidence is
// below LLMFallbackThreshold — borderline detections a caller may choose
// to confirm via an LLM call. This detector never makes that call itself.
func (d *FrameworkDetector) NeedsLLMFallback(profile FrameworkProfile) []DetectedFramework {
	var out []DetectedFramework
	for _, df := range profile.Frameworks {
		if df.Confidence < d.detect.LLMFallbackThreshold {
			out = append(out, df)
		}
	}
	return out
}

// evaluateRule implements the original's confidence formula: the single
// highest-weight matching signal sets the floor, and matching more than
// one *distinct signal type* adds a small breadth bonus, capped.
func evaluateRule(rule FrameworkRule, pf *projectFiles, breadthCap float64) DetectedFramework {
	maxWeight := 0.0
	distinctTypes := map[string]bool{}

	for _, sig := range rule.Signals {
		if !sig.Match(pf) {
			continue
		}
		if w := sig.Weight(); w > maxWeight {
			maxWeight = w
		}
		distinctTypes[signalTypeName(sig)] = true
	}

	if len(distinctTypes) == 0 {
		return DetectedFramework{Name: rule.Name, Language: rule.Language, Category: rule.Category}
	}

	bonus := math.Min(float64(len(distinctTypes)-1)*breadthBonusStep, breadthCap)
	confidence := math.Round(math.Min(maxWeight+bonus, 1.0)*10000) / 10000

	return DetectedFramework{
		Name:       rule.Name,
		Language:   rule.Language,
		Category:   rule.Category,
		Confidence: confidence,
		MatchedAny: true,
	}
}

func signalTypeName(s Signal) string {
	switch s.(type) {
	case ConfigFile:
		return "config_file"
	case Dependency:
		return "dependency"
	case *ImportPattern:
		return "import_pattern"
	case FilePattern:
		return "file_pattern"
	case *CMakePattern:
		return "cmake_pattern"
	case PackageJsonField:
		return "package_json_field"
	default:
		return "unknown"
	}
}

// resolveConflicts keeps only the highest-confidence DetectedFramework
// per (language, category) — e.g. if both jest and vitest look plausible
// for the same JS unit-test slot, the stronger signal wins rather than
// reporting both (spec.md §4.3: "conflicting detections in the same
// category are resolved by confidence").
func resolveConflicts(all []DetectedFramework) []DetectedFramework {
	best := map[[2]string]DetectedFramework{}
	for _, df := range all {
		key := [2]string{df.Language, string(df.Category)}
		if cur, ok := best[key]; !ok || df.Confidence > cur.Confidence {
			best[key] = df
		}
	}
	out := make([]DetectedFramework, 0, len(best))
	for _, df := range best {
		out = append(out, df)
	}
	return out
}
