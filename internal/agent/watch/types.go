// Package watch implements DriftWatcher: nit's recurring check that a
// monitored endpoint (a CLI command, an HTTP call, or a registered Go
// function) still behaves the way it did when its baseline was
// captured (spec.md §4.11). Drift is detected by one of four
// comparators — exact, regex, schema, or embedding-based semantic
// similarity — and, on a failed semantic comparison, the watcher can
// suggest prompt-optimization fixes sized to how far the output drifted.
package watch

import "time"

// EndpointType names how a drift test's target is invoked.
type EndpointType string

const (
	EndpointCLI      EndpointType = "cli"
	EndpointFunction EndpointType = "function"
	EndpointHTTP     EndpointType = "http"
)

// ComparisonType names how a drift test's current output is checked
// against its baseline.
type ComparisonType string

const (
	ComparisonExact    ComparisonType = "exact"
	ComparisonRegex    ComparisonType = "regex"
	ComparisonSchema   ComparisonType = "schema"
	ComparisonSemantic ComparisonType = "semantic"
)

// EndpointConfig carries whichever fields the test's EndpointType
// needs; unused fields are simply left zero. This mirrors
// drift-tests.yml's single endpoint_config map, which is shaped
// differently per endpoint_type.
type EndpointConfig struct {
	Command []string `yaml:"command,omitempty"`

	Module   string `yaml:"module,omitempty"`
	Function string `yaml:"function,omitempty"`
	Args     []any  `yaml:"args,omitempty"`

	URL     string            `yaml:"url,omitempty"`
	Method  string            `yaml:"method,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Body    string            `yaml:"body,omitempty"`
}

// ComparisonConfig carries whichever fields the test's ComparisonType
// needs.
type ComparisonConfig struct {
	Threshold float64        `yaml:"threshold,omitempty"`
	Pattern   string         `yaml:"pattern,omitempty"`
	Schema    map[string]any `yaml:"schema,omitempty"`
}

// DriftTestSpec is one entry from drift-tests.yml.
type DriftTestSpec struct {
	ID               string
	Name             string
	EndpointType     EndpointType
	ComparisonType   ComparisonType
	EndpointConfig   EndpointConfig
	ComparisonConfig ComparisonConfig
}

// DriftBaseline is the canonical output a drift test is compared
// against, captured in baseline mode.
type DriftBaseline struct {
	TestID    string    `json:"test_id"`
	Output    string    `json:"output"`
	Embedding []float64 `json:"embedding,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriftResult is one test's outcome within a DriftReport.
type DriftResult struct {
	TestID             string
	Name               string
	Passed             bool
	BaselineExists     bool
	Output             string
	Error              string
	SimilarityScore    *float64
	PromptOptimization map[string]any
}

// DriftReport aggregates every test run in one drift-watcher pass.
// DriftDetected is true iff any test FAILED a comparison — a test that
// was skipped (no baseline, or the endpoint errored) never counts as
// drift on its own.
type DriftReport struct {
	TotalTests    int
	PassedTests   int
	FailedTests   int
	SkippedTests  int
	DriftDetected bool
	Results       []DriftResult
}
