package debug

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nit-test/nit/internal/adapter"
)

// classificationRule pairs a regex against a failure message with the
// BugType it signals — the same signal/weight table shape
// internal/agent/analyze's security scanner and internal/agent/heal's
// failure classifier both use for turning free-text output into a
// fixed vocabulary.
type classificationRule struct {
	bugType BugType
	pattern *regexp.Regexp
}

var classificationRules = []classificationRule{
	{BugTypeNullDereference, regexp.MustCompile(`(?i)(nil pointer|null pointer|nonetype|` +
		`cannot read propert(?:y|ies) of (?:null|undefined)|NullPointerException|` +
		`attempt to call a nil|invalid memory address)`)},
	{BugTypeIndexError, regexp.MustCompile(`(?i)(index out of range|list index out of range|` +
		`IndexError|array index out of bounds|slice bounds out of range)`)},
	{BugTypeArithmeticError, regexp.MustCompile(`(?i)(division by zero|divide by zero|` +
		`ZeroDivisionError|integer divide by zero)`)},
	{BugTypeTypeError, regexp.MustCompile(`(?i)(TypeError|type mismatch|cannot convert|` +
		`invalid type assertion|unsupported operand type)`)},
	{BugTypeSecurityVulnerability, regexp.MustCompile(`(?i)(sql injection|xss|path traversal|` +
		`csrf|insecure deserialization|command injection)`)},
	{BugTypeResourceLeak, regexp.MustCompile(`(?i)(too many open files|connection pool exhausted|` +
		`goroutine leak|unclosed (?:file|connection))`)},
	{BugTypeConcurrencyIssue, regexp.MustCompile(`(?i)(data race|deadlock|race condition|` +
		`concurrent map (?:read and )?write)`)},
}

// locationPattern extracts a "file:line" frame from a stack-trace-shaped
// failure message — covers Python ("File \"x.py\", line 10"), Go
// ("x.go:10"), and JS/Node ("at x.js:10:5") conventions.
var locationPattern = regexp.MustCompile(
	`(?:File "([^"]+)", line (\d+)|([^\s":]+\.\w+):(\d+)(?::\d+)?)`)

// functionPattern extracts the enclosing function name from common
// "in <func>" / "at <func> (" stack-frame phrasing.
var functionPattern = regexp.MustCompile(`(?:\bin (\w+)\b|\bat (\w+) \()`)

// BugDetector classifies a test run's failures into BugReports, one per
// failing or errored case, so RootCauseAnalyzer has somewhere to start.
type BugDetector struct{}

// NewBugDetector constructs a BugDetector. It carries no state of its
// own; classification is a pure function of the run result.
func NewBugDetector() *BugDetector { return &BugDetector{} }

func (d *BugDetector) Name() string { return "BugDetector" }

// Detect scans result's failing cases and returns one BugReport per
// failure, skipping passed and skipped cases. filePath is the source
// file under test, used as a fallback location when a failure message
// carries no stack frame of its own.
func (d *BugDetector) Detect(result adapter.RunResult, filePath string) []BugReport {
	var reports []BugReport
	for _, c := range result.Cases {
		if c.Passed || c.Skipped {
			continue
		}
		reports = append(reports, d.classify(c, filePath))
	}
	return reports
}

func (d *BugDetector) classify(c adapter.CaseResult, filePath string) BugReport {
	bugType := classify(c.Message)
	loc := d.locate(c.Message, filePath)

	return BugReport{
		BugType:      bugType,
		Severity:     severityFor(bugType, c.Message),
		Title:        string(bugType) + " in " + caseTitle(loc, c.Name),
		Description:  "Test case " + c.Name + " failed",
		Location:     loc,
		ErrorMessage: c.Message,
	}
}

func classify(message string) BugType {
	for _, rule := range classificationRules {
		if rule.pattern.MatchString(message) {
			return rule.bugType
		}
	}
	return BugTypeLogicError
}

func severityFor(bugType BugType, message string) BugSeverity {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "panic") || strings.Contains(lower, "fatal") {
		return BugSeverityCritical
	}
	switch bugType {
	case BugTypeSecurityVulnerability:
		return BugSeverityCritical
	case BugTypeNullDereference, BugTypeConcurrencyIssue:
		return BugSeverityHigh
	case BugTypeResourceLeak:
		return BugSeverityMedium
	default:
		return BugSeverityMedium
	}
}

func (d *BugDetector) locate(message, fallbackFile string) BugLocation {
	loc := BugLocation{FilePath: fallbackFile}

	if m := locationPattern.FindStringSubmatch(message); m != nil {
		switch {
		case m[1] != "":
			loc.FilePath = m[1]
			loc.LineNumber, _ = strconv.Atoi(m[2])
		case m[3] != "":
			loc.FilePath = m[3]
			loc.LineNumber, _ = strconv.Atoi(m[4])
		}
	}

	if m := functionPattern.FindStringSubmatch(message); m != nil {
		if m[1] != "" {
			loc.FunctionName = m[1]
		} else {
			loc.FunctionName = m[2]
		}
	}

	return loc
}

func caseTitle(loc BugLocation, caseName string) string {
	if loc.FunctionName != "" {
		return loc.FunctionName
	}
	if loc.FilePath != "" {
		return loc.FilePath
	}
	return caseName
}
