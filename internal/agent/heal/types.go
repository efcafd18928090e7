// Package heal implements nit's self-healing E2E test repair:
// classifying a runtime failure, checking whether it's flaky before
// spending an LLM call on it, and regenerating the failing selector
// against a snapshot of the page (spec.md §4.10). SelfHealingEngine
// implements internal/agent/build's Healer interface; heal imports
// build for its request/result types, never the other way around.
package heal

// FailureType classifies why an E2E test failed at runtime.
type FailureType string

const (
	FailureTypeSelectorNotFound  FailureType = "selector_not_found"
	FailureTypeTimeout           FailureType = "timeout"
	FailureTypeElementNotVisible FailureType = "element_not_visible"
	FailureTypeUnknown           FailureType = "unknown"
)

// FailureClassification is the result of triaging a run's error messages.
type FailureClassification struct {
	FailureType  FailureType
	Confidence   float64
	Selector     string
	ErrorMessage string
}

// DOMSnapshot is a cheap proxy for the page's current structure, used to
// suggest replacement selectors when the one a test used disappears.
// AnalyzeDOM's implementation is a stub, same as the original engine's
// own _analyze_dom: nit has no running browser session to inspect here,
// only the failing test's source and whatever selectors it already
// names.
type DOMSnapshot struct {
	Selectors   []string
	TestIDs     []string
	Roles       []string
	TextContent []string
}
