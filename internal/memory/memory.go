package memory

import "time"

// SchemaVersion is the current on-disk format version (semver).
const SchemaVersion = "1.0.0"

// Conventions captures detected project test conventions, merged into
// ContextAssembler prompts (spec.md §4.12).
type Conventions struct {
	Language        string            `json:"language,omitempty"`
	NamingStyle     string            `json:"naming_style,omitempty"`
	AssertionStyle  string            `json:"assertion_style,omitempty"`
	MockingPatterns []string          `json:"mocking_patterns,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// KnownPattern is a test-generation pattern that succeeded in a prior run.
type KnownPattern struct {
	Pattern string            `json:"pattern"`
	Context map[string]string `json:"context,omitempty"`
}

// FailedPattern is a pattern that failed, with the reason it failed so
// future runs can avoid repeating it.
type FailedPattern struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// Stats are rolling generation statistics.
type Stats struct {
	TotalGenerated int       `json:"total_generated"`
	Successful     int       `json:"successful"`
	Failed         int       `json:"failed"`
	LastUpdated    time.Time `json:"last_updated,omitempty"`
}

// document is the on-disk JSON shape of a project's memory file.
type document struct {
	Version        string          `json:"version"`
	Conventions    Conventions     `json:"conventions"`
	KnownPatterns  []KnownPattern  `json:"known_patterns"`
	FailedPatterns []FailedPattern `json:"failed_patterns"`
	Stats          Stats           `json:"stats"`
}

func newDocument() document {
	return document{
		Version:        SchemaVersion,
		KnownPatterns:  []KnownPattern{},
		FailedPatterns: []FailedPattern{},
	}
}
