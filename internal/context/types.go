package context

// DetectedTestPattern is what PatternAnalyzer/ContextAssembler extract
// from existing test files near a source file (spec.md §4.4 step 4).
type DetectedTestPattern struct {
	NamingStyle     string   `json:"naming_style"`
	AssertionStyle  string   `json:"assertion_style"`
	MockingPatterns []string `json:"mocking_patterns,omitempty"`
	Imports         []string `json:"imports,omitempty"`
	SampleTest      string   `json:"sample_test,omitempty"`
}

// RelatedFile is a project-local file pulled into context because it's a
// sibling test file or an import target (spec.md §4.4 step 3).
type RelatedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Reason  string `json:"reason"` // "sibling_test" | "import"
}

// AssembledContext is the prompt-ready bundle a Builder renders its
// template against (spec.md §3 data model).
type AssembledContext struct {
	SourcePath  string
	SourceCode  string
	Language    string
	Functions   []string // rendered function signatures, highest priority after full source
	Related     []RelatedFile
	TestPattern DetectedTestPattern
	TotalTokens int
}
