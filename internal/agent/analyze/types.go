// Package analyze implements nit's Analyzer agents: CodeAnalyzer,
// CoverageAnalyzer, SemanticGapDetector, SecurityAnalyzer, DiffAnalyzer,
// PatternAnalyzer, ContractAnalyzer, and IntegrationDepsAnalyzer
// (spec.md §4.7).
package analyze

import "github.com/nit-test/nit/internal/ast"

// Complexity thresholds a function's cyclomatic complexity is bucketed
// against, grounded on original_source's CodeAnalyzer constants.
const (
	ComplexityThresholdHigh     = 10
	ComplexityThresholdModerate = 5
)

// ComplexityMetrics is the cyclomatic-complexity breakdown for one
// function.
type ComplexityMetrics struct {
	Cyclomatic     int
	DecisionPoints map[string]int
}

func (m ComplexityMetrics) IsComplex() bool {
	return m.Cyclomatic > ComplexityThresholdHigh
}

func (m ComplexityMetrics) IsModerate() bool {
	return m.Cyclomatic >= ComplexityThresholdModerate && m.Cyclomatic <= ComplexityThresholdHigh
}

// SideEffectType classifies an observed side effect.
type SideEffectType string

const (
	SideEffectDatabase        SideEffectType = "database"
	SideEffectFilesystem      SideEffectType = "filesystem"
	SideEffectHTTP            SideEffectType = "http"
	SideEffectExternalProcess SideEffectType = "external_process"
	SideEffectLogging         SideEffectType = "logging"
)

// SideEffect is one detected side effect in a function body.
type SideEffect struct {
	Type       SideEffectType
	Evidence   string
	LineNumber int
}

// FunctionCall is one in-file call edge: caller invokes callee at line.
type FunctionCall struct {
	Caller     string
	Callee     string
	LineNumber int
}

// CodeMap is the structured output of analyzing a single source file.
type CodeMap struct {
	FilePath       string
	Language       string
	Functions      []ast.FunctionInfo
	Classes        []ast.ClassInfo
	Imports        []ast.Import
	ComplexityMap  map[string]ComplexityMetrics
	SideEffectsMap map[string][]SideEffect
	CallGraph      []FunctionCall
	HasErrors      bool
}
