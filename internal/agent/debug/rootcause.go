package debug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/llm"
)

// DataFlowPath traces one variable's life inside the function a bug was
// reported against: where it's assigned, what guards it, and where it's
// read.
type DataFlowPath struct {
	VariableName string
	Assignments  []string
	Conditions   []string
	Usages       []string
}

// NewDataFlowPath builds a DataFlowPath with empty-but-non-nil slices,
// the shape a bare struct literal doesn't give for free.
func NewDataFlowPath(variableName string) DataFlowPath {
	return DataFlowPath{
		VariableName: variableName,
		Assignments:  []string{},
		Conditions:   []string{},
		Usages:       []string{},
	}
}

// RootCause is RootCauseAnalyzer's output and FixGenerator's input.
type RootCause struct {
	Category             string
	Description          string
	AffectedCode         string
	DataFlow             []DataFlowPath
	MissingChecks        []string
	IncorrectAssumptions []string
	ContributingFactors  []string
	Confidence           float64
}

// NewRootCause builds a RootCause with the defaults a bare struct
// literal wouldn't get for free: Confidence 0.7 (raised to 0.8 only by
// parseLLMResponse, which always has a generated explanation backing
// it) and empty-but-non-nil slices for every list field.
func NewRootCause(category, description, affectedCode string) RootCause {
	return RootCause{
		Category:             category,
		Description:          description,
		AffectedCode:         affectedCode,
		DataFlow:             []DataFlowPath{},
		MissingChecks:        []string{},
		IncorrectAssumptions: []string{},
		ContributingFactors:  []string{},
		Confidence:           0.7,
	}
}

// RootCauseAnalysisTask is RootCauseAnalyzer's input.
type RootCauseAnalysisTask struct {
	Target     string
	BugReport  BugReport
	SourceCode string
}

const rootCauseSystemPrompt = "You are a root cause analyst. Given a bug report, the" +
	" affected function, its data-flow trace, and any missing validation checks," +
	" explain the defect. Respond with labeled fields: Category, Description," +
	" Affected Code, Incorrect Assumptions, Contributing Factors."

// RootCauseAnalyzer traces data flow around a reported bug's location and
// asks the LLM to explain why the code misbehaves (spec.md §4.9).
type RootCauseAnalyzer struct {
	engine      *llm.Engine
	parser      *ast.Parser
	projectRoot string
}

func NewRootCauseAnalyzer(engine *llm.Engine, projectRoot string) *RootCauseAnalyzer {
	return &RootCauseAnalyzer{engine: engine, parser: ast.NewParser(), projectRoot: projectRoot}
}

func (a *RootCauseAnalyzer) Name() string { return "RootCauseAnalyzer" }

func (a *RootCauseAnalyzer) Description() string {
	return "Analyzes the root cause of a bug by tracing data flow and identifying missing checks"
}

// Analyze parses task.SourceCode, locates the function the bug report
// points at, traces data flow for every variable it touches, checks for
// the validation a bug of this type usually needs, and asks the LLM to
// narrate the result into a RootCause.
func (a *RootCauseAnalyzer) Analyze(ctx context.Context, task RootCauseAnalysisTask) (RootCause, error) {
	parseResult, err := a.parser.Parse(ctx, []byte(task.SourceCode), task.Target)
	if err != nil {
		return RootCause{}, fmt.Errorf("nit/debug: parse %s for root cause analysis: %w", task.Target, err)
	}
	defer parseResult.Close()

	flows := a.analyzeDataFlow(parseResult, task.BugReport)
	missing := a.identifyMissingChecks(task.BugReport, flows)

	resp, err := a.engine.Generate(ctx, llm.GenerationRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rootCauseSystemPrompt},
			{Role: llm.RoleUser, Content: a.renderPrompt(task, flows, missing)},
		},
		Metadata: llm.Metadata{BuilderName: a.Name(), SourceFile: task.Target},
	})
	if err != nil {
		return RootCause{}, fmt.Errorf("nit/debug: generate root cause: %w", err)
	}

	return a.parseLLMResponse(resp.Text, task.BugReport, flows, missing), nil
}

func (a *RootCauseAnalyzer) renderPrompt(task RootCauseAnalysisTask, flows []DataFlowPath, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bug: %s (%s)\nError: %s\n", task.BugReport.Title, task.BugReport.BugType, task.BugReport.ErrorMessage)
	for _, f := range flows {
		fmt.Fprintf(&b, "Variable %s: assignments=%v conditions=%v usages=%v\n",
			f.VariableName, f.Assignments, f.Conditions, f.Usages)
	}
	for _, m := range missing {
		fmt.Fprintf(&b, "Missing check: %s\n", m)
	}
	return b.String()
}

// findFunctionAt returns the innermost function/method containing
// lineNumber. lineNumber 0 means "unknown" — nit's BugLocation uses 0 as
// the zero value for "no line number", mirroring the original's
// line_number: int | None with None collapsed to the Go zero value — so
// the first function (or method, if there are no top-level functions)
// is returned instead, same as the original's fallback when the LLM or
// detector couldn't pin down a line.
func (a *RootCauseAnalyzer) findFunctionAt(pr *ast.ParseResult, lineNumber int) *ast.FunctionInfo {
	if lineNumber == 0 {
		if len(pr.Functions) > 0 {
			return &pr.Functions[0]
		}
		for _, c := range pr.Classes {
			if len(c.Methods) > 0 {
				return &c.Methods[0]
			}
		}
		return nil
	}

	for i := range pr.Functions {
		f := &pr.Functions[i]
		if lineNumber >= f.StartLine && lineNumber <= f.EndLine {
			return f
		}
	}
	for _, c := range pr.Classes {
		for i := range c.Methods {
			m := &c.Methods[i]
			if lineNumber >= m.StartLine && lineNumber <= m.EndLine {
				return m
			}
		}
	}
	return nil
}

var assignmentTargetPattern = regexp.MustCompile(`(\w+)\s*=(?:[^=]|$)`)
var paramNamePattern = regexp.MustCompile(`\(([^)]*)\)`)

// extractVariables collects every name the function assigns to, plus its
// declared parameters, in first-seen order.
func (a *RootCauseAnalyzer) extractVariables(fn *ast.FunctionInfo) []string {
	seen := map[string]bool{}
	var names []string

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, m := range assignmentTargetPattern.FindAllStringSubmatch(fn.BodyText, -1) {
		add(m[1])
	}

	if m := paramNamePattern.FindStringSubmatch(fn.Signature); m != nil {
		for _, p := range strings.Split(m[1], ",") {
			p = strings.TrimSpace(p)
			if idx := strings.IndexAny(p, " :"); idx >= 0 {
				p = p[:idx]
			}
			add(p)
		}
	}

	return names
}

// findAssignments returns every statement in code that assigns to
// variable — split on newlines and semicolons the way a one-liner
// stitched-together body still yields distinct statements.
func (a *RootCauseAnalyzer) findAssignments(code, variable string) []string {
	pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(variable) + `\s*=(?:[^=]|$)`)
	var out []string
	for _, stmt := range splitStatements(code) {
		if pattern.MatchString(stmt) {
			out = append(out, strings.TrimSpace(stmt))
		}
	}
	return out
}

// findConditions returns every if/while statement in code that mentions
// variable.
func (a *RootCauseAnalyzer) findConditions(code, variable string) []string {
	conditionPattern := regexp.MustCompile(`(?i)^\s*(?:if|while|elif|else if)\b`)
	mention := regexp.MustCompile(`\b` + regexp.QuoteMeta(variable) + `\b`)
	var out []string
	for _, stmt := range splitStatements(code) {
		if conditionPattern.MatchString(stmt) && mention.MatchString(stmt) {
			out = append(out, strings.TrimSpace(stmt))
		}
	}
	return out
}

const maxUsages = 5

// findUsages returns up to maxUsages statements that read variable
// without assigning to it.
func (a *RootCauseAnalyzer) findUsages(code, variable string) []string {
	assignPattern := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(variable) + `\s*=(?:[^=]|$)`)
	mention := regexp.MustCompile(`\b` + regexp.QuoteMeta(variable) + `\b`)
	var out []string
	for _, stmt := range splitStatements(code) {
		if assignPattern.MatchString(stmt) {
			continue
		}
		if mention.MatchString(stmt) {
			out = append(out, strings.TrimSpace(stmt))
			if len(out) >= maxUsages {
				break
			}
		}
	}
	return out
}

// splitStatements breaks a function body into line- or
// semicolon-delimited statements, whichever the body actually uses.
func splitStatements(code string) []string {
	var stmts []string
	for _, line := range strings.Split(code, "\n") {
		if strings.Contains(line, ";") {
			stmts = append(stmts, strings.Split(line, ";")...)
		} else {
			stmts = append(stmts, line)
		}
	}
	return stmts
}

// analyzeDataFlow traces every variable the bug's enclosing function
// touches. Returns nil if no enclosing function can be found.
func (a *RootCauseAnalyzer) analyzeDataFlow(pr *ast.ParseResult, bug BugReport) []DataFlowPath {
	fn := a.findFunctionAt(pr, bug.Location.LineNumber)
	if fn == nil {
		return nil
	}

	var flows []DataFlowPath
	for _, v := range a.extractVariables(fn) {
		flows = append(flows, DataFlowPath{
			VariableName: v,
			Assignments:  a.findAssignments(fn.BodyText, v),
			Conditions:   a.findConditions(fn.BodyText, v),
			Usages:       a.findUsages(fn.BodyText, v),
		})
	}
	return flows
}

var nullCheckPattern = regexp.MustCompile(`(?i)(!=\s*(?:nil|null|none|undefined)|` +
	`is not none|!==?\s*undefined|\? \?|\bhasValue\b)`)
var typeCheckPattern = regexp.MustCompile(`(?i)(typeof|isinstance|hasattr|\.\(type\)|instanceof)`)
var zeroCheckPattern = regexp.MustCompile(`(?i)(!=\s*0\b|>\s*0\b|is not 0|!==?\s*0\b)`)
var boundsCheckPattern = regexp.MustCompile(`(?i)(len\(|range\(|<\s*len|\.length\b|bounds)`)

// identifyMissingChecks reports the one class of validation a bug's
// BugType typically needs, when none of its data-flow conditions already
// perform it.
func (a *RootCauseAnalyzer) identifyMissingChecks(bug BugReport, flows []DataFlowPath) []string {
	var guard *regexp.Regexp
	var message string

	switch bug.BugType {
	case BugTypeNullDereference:
		guard, message = nullCheckPattern, "Missing null/undefined check before dereference"
	case BugTypeTypeError:
		guard, message = typeCheckPattern, "Missing type check before operation"
	case BugTypeArithmeticError:
		guard, message = zeroCheckPattern, "Missing zero check before division"
	case BugTypeIndexError:
		guard, message = boundsCheckPattern, "Missing bounds check before indexing"
	default:
		return nil
	}

	for _, f := range flows {
		for _, c := range f.Conditions {
			if guard.MatchString(c) {
				return nil
			}
		}
	}
	return []string{message}
}

var categoryPattern = regexp.MustCompile(`(?im)^Category:\s*(.+)$`)
var descriptionPattern = regexp.MustCompile(`(?im)^Description:\s*(.+)$`)
var affectedCodePattern = regexp.MustCompile(`(?im)^Affected Code:\s*(.+)$`)
var incorrectAssumptionsPattern = regexp.MustCompile(`(?im)^Incorrect Assumptions:\s*(.+)$`)
var contributingFactorsPattern = regexp.MustCompile(`(?im)^Contributing Factors:\s*(.+)$`)

const rootCauseConfidence = 0.8
const fallbackDescriptionLength = 200

// parseLLMResponse extracts the labeled fields the system prompt asked
// for; an unstructured response still yields a usable RootCause with a
// default category and a description sliced from the raw text.
func (a *RootCauseAnalyzer) parseLLMResponse(text string, bug BugReport, flows []DataFlowPath, missing []string) RootCause {
	rc := RootCause{
		Category:      "logic_error",
		DataFlow:      flows,
		MissingChecks: missing,
		Confidence:    rootCauseConfidence,
	}

	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		rc.Category = strings.TrimSpace(m[1])
	}
	if m := descriptionPattern.FindStringSubmatch(text); m != nil {
		rc.Description = strings.TrimSpace(m[1])
	} else {
		rc.Description = truncate(strings.TrimSpace(text), fallbackDescriptionLength)
	}
	if m := affectedCodePattern.FindStringSubmatch(text); m != nil {
		rc.AffectedCode = strings.TrimSpace(m[1])
	}
	if m := incorrectAssumptionsPattern.FindStringSubmatch(text); m != nil {
		rc.IncorrectAssumptions = splitCSV(m[1])
	}
	if m := contributingFactorsPattern.FindStringSubmatch(text); m != nil {
		rc.ContributingFactors = splitCSV(m[1])
	}

	return rc
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
