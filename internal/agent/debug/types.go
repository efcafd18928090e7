// Package debug implements nit's bug-fix chain: BugDetector finds and
// classifies failures, RootCauseAnalyzer explains why they happen,
// FixGenerator proposes a patch, and FixVerifier applies it under a
// crash-safe backup/restore protocol before deciding whether it sticks
// (spec.md §4.9: BugDetector → RootCauseAnalyzer → FixGenerator →
// FixVerifier).
package debug

// BugType classifies the kind of defect a BugReport describes.
type BugType string

const (
	BugTypeNullDereference       BugType = "null_dereference"
	BugTypeTypeError             BugType = "type_error"
	BugTypeArithmeticError       BugType = "arithmetic_error"
	BugTypeIndexError            BugType = "index_error"
	BugTypeLogicError            BugType = "logic_error"
	BugTypeSecurityVulnerability BugType = "security_vulnerability"
	BugTypeResourceLeak          BugType = "resource_leak"
	BugTypeConcurrencyIssue      BugType = "concurrency_issue"
	BugTypeUnknown               BugType = "unknown"
)

// BugSeverity ranks how urgently a bug needs fixing.
type BugSeverity string

const (
	BugSeverityCritical BugSeverity = "critical"
	BugSeverityHigh     BugSeverity = "high"
	BugSeverityMedium   BugSeverity = "medium"
	BugSeverityLow      BugSeverity = "low"
)

// BugLocation pinpoints where a bug lives. LineNumber is 0 and
// FunctionName is "" when unknown — failures surfaced only by a raw
// error message without a parsed stack frame leave both unset.
type BugLocation struct {
	FilePath     string
	LineNumber   int
	FunctionName string
}

// BugReport is BugDetector's output and RootCauseAnalyzer/FixGenerator's
// shared input.
type BugReport struct {
	BugType      BugType
	Severity     BugSeverity
	Title        string
	Description  string
	Location     BugLocation
	ErrorMessage string
}
