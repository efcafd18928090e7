package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nit-test/nit/internal/llm"
)

// Semantic gap analysis tuning constants, ported from
// original_source/.../analyzers/semantic_gap.py's module-level defaults.
const (
	DefaultGapConfidenceThreshold = 0.6
	MaxFunctionsToAnalyze         = 10
	MinComplexityForGapAnalysis   = 3
	MaxCoverageForGapAnalysis     = 90.0
	maxFunctionSnippetLength      = 1000
)

// GapCategory classifies the kind of semantic test gap an LLM pass found.
type GapCategory string

const (
	GapEdgeCase    GapCategory = "edge_case"
	GapErrorPath   GapCategory = "error_path"
	GapIntegration GapCategory = "integration"
	GapBehavioral  GapCategory = "behavioral"
	GapConcurrency GapCategory = "concurrency"
	GapSecurity    GapCategory = "security"
)

var knownGapCategories = map[string]GapCategory{
	string(GapEdgeCase):    GapEdgeCase,
	string(GapErrorPath):   GapErrorPath,
	string(GapIntegration): GapIntegration,
	string(GapBehavioral):  GapBehavioral,
	string(GapConcurrency): GapConcurrency,
	string(GapSecurity):    GapSecurity,
}

// SemanticGap is one LLM-identified test gap beyond what coverage
// analysis can see.
type SemanticGap struct {
	Category           GapCategory
	Description        string
	FunctionName       string
	FilePath           string
	LineNumber         int
	Severity           string
	SuggestedTestCases []string
	Confidence         float64
	Reasoning          string
}

var gapLanguageByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".rs":   "rust",
	".go":   "go",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
}

func detectGapLanguage(filePath string) string {
	if lang, ok := gapLanguageByExt[strings.ToLower(filepath.Ext(filePath))]; ok {
		return lang
	}
	return "unknown"
}

var functionExtractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)(def %NAME%\([^)]*\):.*?)(?:\ndef|\nclass|\z)`),
	regexp.MustCompile(`(?s)(function %NAME%\([^)]*\)\{.*?\})`),
	regexp.MustCompile(`(?s)(fn %NAME%\([^)]*\).*?\{.*?\})`),
	regexp.MustCompile(`(?s)(func %NAME%\([^)]*\).*?\{.*?\})`),
}

// extractFunctionCode pulls one function's source text out of a whole
// file's content via the same best-effort regex fallback the original
// uses (no real AST parsing; nit's own CodeAnalyzer already does that
// elsewhere and this detector only needs a representative snippet for
// the LLM prompt).
func extractFunctionCode(source, functionName string) string {
	for _, tpl := range functionExtractPatterns {
		pattern := strings.ReplaceAll(tpl.String(), "%NAME%", regexp.QuoteMeta(functionName))
		re := regexp.MustCompile(pattern)
		if m := re.FindStringSubmatch(source); m != nil {
			return m[1]
		}
	}
	if len(source) > maxFunctionSnippetLength {
		return source[:maxFunctionSnippetLength]
	}
	return source
}

var (
	ifCountRe     = regexp.MustCompile(`\bif\b`)
	loopCountRe   = regexp.MustCompile(`\b(?:for|while|loop)\b`)
	tryCountRe    = regexp.MustCompile(`\btry\b`)
	returnCountRe = regexp.MustCompile(`\breturn\b`)
)

// buildASTStructureSummary produces the same coarse control-flow summary
// string the original hands to its prompt template (counts of
// conditionals/loops/try blocks/returns), not a real AST dump.
func buildASTStructureSummary(functionCode string) string {
	var parts []string
	if n := len(ifCountRe.FindAllString(functionCode, -1)); n > 0 {
		parts = append(parts, fmt.Sprintf("%d conditional branches", n))
	}
	if n := len(loopCountRe.FindAllString(functionCode, -1)); n > 0 {
		parts = append(parts, fmt.Sprintf("%d loops", n))
	}
	if n := len(tryCountRe.FindAllString(functionCode, -1)); n > 0 {
		parts = append(parts, fmt.Sprintf("%d try-catch blocks", n))
	}
	if n := len(returnCountRe.FindAllString(functionCode, -1)); n > 0 {
		parts = append(parts, fmt.Sprintf("%d return statements", n))
	}
	if len(parts) == 0 {
		return "simple function"
	}
	return strings.Join(parts, ", ")
}

// SemanticGapDetector finds test scenarios coverage analysis can't see —
// edge cases, error paths, integration points, behavioral/concurrency/
// security gaps — by prompting an LLM with a function's source and
// control-flow summary, grounded on
// original_source/.../analyzers/semantic_gap.py. Results are cached by
// (file,function) so a second pass over the same gap is free.
type SemanticGapDetector struct {
	Engine              *llm.Engine
	ProjectRoot         string
	ConfidenceThreshold float64
	MaxFunctions        int

	cache map[string][]SemanticGap
}

func NewSemanticGapDetector(engine *llm.Engine, projectRoot string) *SemanticGapDetector {
	return &SemanticGapDetector{
		Engine:              engine,
		ProjectRoot:         projectRoot,
		ConfidenceThreshold: DefaultGapConfidenceThreshold,
		MaxFunctions:        MaxFunctionsToAnalyze,
		cache:               map[string][]SemanticGap{},
	}
}

// Detect prioritizes gaps (by the same (priority,-complexity,coverage)
// order CoverageAnalyzer already used), analyzes up to MaxFunctions of
// them via the LLM, and returns gaps at or above ConfidenceThreshold.
// Functions too simple (complexity < MinComplexityForGapAnalysis) or
// already well covered (coverage > MaxCoverageForGapAnalysis) are
// skipped, matching the original's cost-control gates.
func (d *SemanticGapDetector) Detect(ctx context.Context, gaps []FunctionGap) ([]SemanticGap, error) {
	if len(gaps) == 0 {
		return nil, nil
	}

	threshold := d.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultGapConfidenceThreshold
	}
	maxFns := d.MaxFunctions
	if maxFns <= 0 {
		maxFns = MaxFunctionsToAnalyze
	}

	prioritized := prioritizeFunctionGaps(gaps)
	if len(prioritized) > maxFns {
		prioritized = prioritized[:maxFns]
	}

	var found []SemanticGap
	for _, gap := range prioritized {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		key := gap.FilePath + ":" + gap.Name
		if cached, ok := d.cache[key]; ok {
			found = append(found, cached...)
			continue
		}
		if gap.Complexity < MinComplexityForGapAnalysis {
			continue
		}
		if gap.CoveragePercentage > MaxCoverageForGapAnalysis {
			continue
		}

		functionGaps, err := d.analyzeFunction(ctx, gap)
		if err != nil {
			continue
		}

		var accepted []SemanticGap
		for _, g := range functionGaps {
			if g.Confidence >= threshold {
				accepted = append(accepted, g)
			}
		}
		d.cache[key] = accepted
		found = append(found, accepted...)
	}

	return found, nil
}

func prioritizeFunctionGaps(gaps []FunctionGap) []FunctionGap {
	out := make([]FunctionGap, len(gaps))
	copy(out, gaps)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := gapPriorityRank[out[i].Priority], gapPriorityRank[out[j].Priority]
		if ri != rj {
			return ri < rj
		}
		if out[i].Complexity != out[j].Complexity {
			return out[i].Complexity > out[j].Complexity
		}
		return out[i].CoveragePercentage < out[j].CoveragePercentage
	})
	return out
}

func (d *SemanticGapDetector) analyzeFunction(ctx context.Context, gap FunctionGap) ([]SemanticGap, error) {
	sourcePath := filepath.Join(d.ProjectRoot, gap.FilePath)
	var source string
	if data, err := os.ReadFile(sourcePath); err == nil {
		source = string(data)
	}

	functionCode := extractFunctionCode(source, gap.Name)
	language := detectGapLanguage(gap.FilePath)
	astSummary := buildASTStructureSummary(functionCode)

	req := llm.GenerationRequest{
		Messages: renderSemanticGapPrompt(functionCode, language, gap, astSummary),
		Metadata: llm.Metadata{
			TemplateName: "semantic_gap",
			BuilderName:  "SemanticGapDetector",
			SourceFile:   gap.FilePath,
		},
	}

	resp, err := d.Engine.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseSemanticGapResponse(resp.Text, gap.Name, gap.FilePath), nil
}

func renderSemanticGapPrompt(functionCode, language string, gap FunctionGap, astSummary string) []llm.Message {
	system := "You are a test-gap analyst. Given a function's source and a " +
		"summary of its control flow, identify semantic test gaps — edge " +
		"cases, error paths, integration points, behavioral, concurrency, " +
		"and security scenarios that coverage numbers alone would not " +
		"reveal. Respond with one or more gap sections separated by '---', " +
		"each containing **CATEGORY**, **SEVERITY**, **DESCRIPTION**, " +
		"**TEST_CASES** (a '-' bulleted list), **CONFIDENCE** (0.0-1.0), " +
		"and **REASONING**."

	user := fmt.Sprintf(
		"Function: %s\nFile: %s (%s)\nComplexity: %d\nCoverage: %.1f%%\n"+
			"Control flow: %s\n\n```%s\n%s\n```",
		gap.Name, gap.FilePath, language, gap.Complexity, gap.CoveragePercentage,
		astSummary, language, functionCode,
	)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: user},
	}
}

var (
	gapCategoryRe   = regexp.MustCompile(`(?i)\*\*CATEGORY\*\*:\s*(\w+)`)
	gapSeverityRe   = regexp.MustCompile(`(?i)\*\*SEVERITY\*\*:\s*(\w+)`)
	gapDescRe       = regexp.MustCompile(`(?is)\*\*DESCRIPTION\*\*:\s*(.+?)(?:\*\*|$)`)
	gapTestCasesRe  = regexp.MustCompile(`(?is)\*\*TEST_CASES\*\*:\s*(.+?)(?:\*\*|$)`)
	gapConfidenceRe = regexp.MustCompile(`(?i)\*\*CONFIDENCE\*\*:\s*([\d.]+)`)
	gapReasoningRe  = regexp.MustCompile(`(?is)\*\*REASONING\*\*:\s*(.+?)(?:\*\*|$)`)
)

// parseSemanticGapResponse splits an LLM response into '---'-delimited
// sections and parses each into a SemanticGap, matching the original's
// _parse_llm_response/_parse_gap_section.
func parseSemanticGapResponse(response, functionName, filePath string) []SemanticGap {
	var gaps []SemanticGap
	for _, section := range strings.Split(response, "---") {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if gap := parseGapSection(section, functionName, filePath); gap != nil {
			gaps = append(gaps, *gap)
		}
	}
	return gaps
}

func parseGapSection(section, functionName, filePath string) *SemanticGap {
	categoryMatch := gapCategoryRe.FindStringSubmatch(section)
	descMatch := gapDescRe.FindStringSubmatch(section)
	if categoryMatch == nil || descMatch == nil {
		return nil
	}

	category, ok := knownGapCategories[strings.ToLower(categoryMatch[1])]
	if !ok {
		category = GapEdgeCase
	}

	severity := "medium"
	if m := gapSeverityRe.FindStringSubmatch(section); m != nil {
		severity = strings.ToLower(m[1])
	}

	var testCases []string
	if m := gapTestCasesRe.FindStringSubmatch(section); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "-") {
				continue
			}
			testCases = append(testCases, strings.TrimSpace(strings.TrimPrefix(line, "-")))
		}
	}

	confidence := 0.7
	if m := gapConfidenceRe.FindStringSubmatch(section); m != nil {
		if parsed, err := strconv.ParseFloat(m[1], 64); err == nil {
			confidence = parsed
		}
	}

	reasoning := ""
	if m := gapReasoningRe.FindStringSubmatch(section); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}

	return &SemanticGap{
		Category:           category,
		Description:        strings.TrimSpace(descMatch[1]),
		FunctionName:       functionName,
		FilePath:           filePath,
		Severity:           severity,
		SuggestedTestCases: testCases,
		Confidence:         confidence,
		Reasoning:          reasoning,
	}
}
