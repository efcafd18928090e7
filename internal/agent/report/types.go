// Package report ships run results to the outbound sinks nit can be
// configured with: a Slack webhook, a GitHub pull request, and the nit
// Platform API (spec.md's External Sinks: "Slack webhook... GitHub:
// create branch -> commit files -> push -> open PR... Platform API:
// POST reports/bugs/drift/usage/memory/security/risk/coverage-gaps/
// fixes/routes/doc-coverage/prompts"). Every sink here follows the same
// rule: a delivery failure is logged and returned to the caller, never
// panicked on and never allowed to abort the run that produced it.
package report

import "time"

// RunSummary is the human-facing digest of one orchestrator run, the
// payload SlackReporter and GitHubReporter's PR body are built from.
type RunSummary struct {
	ProjectRoot string
	Command     string
	StartedAt   time.Time
	FinishedAt  time.Time

	TestsGenerated int
	TestsPassed    int
	TestsFailed    int

	BugsFound        int
	BugsFixed        int
	SecurityFindings int
	DriftDetected    bool

	Messages []string
	Success  bool
}

func (s RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Kind names one of the Platform API's upload endpoints. Using a typed
// string keeps PlatformSink to one generic method instead of one Go
// method per endpoint, while still giving Upload call sites a closed,
// greppable set of valid targets.
type Kind string

const (
	KindReport       Kind = "reports"
	KindBugs         Kind = "bugs"
	KindDrift        Kind = "drift"
	KindUsage        Kind = "usage"
	KindMemory       Kind = "memory"
	KindSecurity     Kind = "security"
	KindRisk         Kind = "risk"
	KindCoverageGaps Kind = "coverage-gaps"
	KindFixes        Kind = "fixes"
	KindRoutes       Kind = "routes"
	KindDocCoverage  Kind = "doc-coverage"
	KindPrompts      Kind = "prompts"
)
