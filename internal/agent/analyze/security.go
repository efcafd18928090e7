package analyze

import (
	"math"
	"regexp"
	"strings"
)

// Severity mirrors the teacher's safety.Severity vocabulary.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// SecurityFunctions are function name patterns treated as
// security-sensitive for prioritizing findings — reused verbatim from
// services/code_buddy/safety/error_audit/patterns.go.
var SecurityFunctions = []string{
	"checkAuth", "validateAuth", "authenticate", "verifyAuth",
	"ValidateToken", "VerifyToken", "CheckToken", "ParseToken",
	"login", "signin", "signIn", "Login", "SignIn",
	"verifyPassword", "checkPassword", "ValidatePassword",
	"authorize", "Authorize", "checkPermission", "CheckPermission",
	"hasPermission", "HasPermission", "isAllowed", "IsAllowed",
	"checkAccess", "CheckAccess", "verifyAccess", "VerifyAccess",
	"canAccess", "CanAccess", "isAuthorized", "IsAuthorized",
	"validate", "Validate", "sanitize", "Sanitize",
	"verify", "Verify", "check", "Check",
	"authMiddleware", "AuthMiddleware", "requireAuth", "RequireAuth",
	"ensureAuth", "EnsureAuth", "mustAuth", "MustAuth",
}

// IsSecurityFunction reports whether name matches one of
// SecurityFunctions.
func IsSecurityFunction(name string) bool {
	for _, pat := range SecurityFunctions {
		if name == pat {
			return true
		}
	}
	return false
}

// InfoLeakPattern is a regex-backed information-leak detector, lazily
// compiled like the teacher's equivalent.
type InfoLeakPattern struct {
	Type        string
	Pattern     string
	compiled    *regexp.Regexp
	Severity    Severity
	Description string
	CWE         string
}

func (p *InfoLeakPattern) Match(content string) [][]int {
	if p.compiled == nil {
		p.compiled = regexp.MustCompile(p.Pattern)
	}
	return p.compiled.FindAllStringIndex(content, -1)
}

// DefaultInfoLeakPatterns ports the teacher's table; Go-specific
// patterns are generalized where they were language-specific in the
// original (stack traces, error plumbing) to also catch the Python/JS
// idioms nit's generated tests need to scan across languages.
var DefaultInfoLeakPatterns = []*InfoLeakPattern{
	{
		Type:        "stack_trace",
		Pattern:     `(?:runtime/debug\.Stack|debug\.PrintStack|traceback\.format_exc|traceback\.print_exc)`,
		Severity:    SeverityHigh,
		Description: "Stack trace exposed to users",
		CWE:         "CWE-209",
	},
	{
		Type:        "stack_trace",
		Pattern:     `(?:\.stack|Error\.stack|err\.stack)\s*[,)]`,
		Severity:    SeverityMedium,
		Description: "Error stack property exposed",
		CWE:         "CWE-209",
	},
	{
		Type:        "internal_path",
		Pattern:     `(?:"/home/|"/var/|"/usr/|"/opt/|"C:\\|"/root/)`,
		Severity:    SeverityLow,
		Description: "Internal file path exposed in string",
		CWE:         "CWE-200",
	},
	{
		Type:        "db_error",
		Pattern:     `(?:pq:|mysql:|sqlite3:|SQLSTATE|ORA-\d+).*(?:Write|Response|Send|json)`,
		Severity:    SeverityHigh,
		Description: "Database error message exposed to user",
		CWE:         "CWE-209",
	},
	{
		Type:        "verbose_error",
		Pattern:     `(?:Write|Response|Send|json|fmt\.Fprint).*(?:err\.Error\(\)|error\.Error\(\))`,
		Severity:    SeverityMedium,
		Description: "Full error message sent to client",
		CWE:         "CWE-209",
	},
	{
		Type:        "sensitive_field",
		Pattern:     `(?:password|secret|token|key|credential|auth).*(?:invalid|incorrect|wrong|failed).*(?:Write|Response|Send)`,
		Severity:    SeverityMedium,
		Description: "Sensitive field name in error response",
		CWE:         "CWE-209",
	},
}

// secretKeyPatterns match well-known provider secret formats.
var secretKeyPatterns = map[string]*regexp.Regexp{
	"aws_access_key": regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	"github_token":   regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{36,}`),
	"stripe_key":     regexp.MustCompile(`sk_live_[0-9a-zA-Z]{24,}`),
}

// genericSecretAssignment matches a quoted-string assignment to a
// secret-sounding variable name, a candidate for the entropy test.
var genericSecretAssignment = regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*['"]([A-Za-z0-9+/_\-=]{16,})['"]`)

const highEntropyThreshold = 3.5 // bits/char; typical English text sits well below this

// SecurityFinding is one detected security concern.
type SecurityFinding struct {
	Type               string
	Severity           Severity
	Description        string
	CWE                string
	LineNumber         int
	Evidence           string
	InSecurityFunction bool
}

// SecurityAnalyzer scans source text for information-leak patterns and
// hardcoded secrets.
type SecurityAnalyzer struct{}

func NewSecurityAnalyzer() *SecurityAnalyzer { return &SecurityAnalyzer{} }

// Analyze scans content (a whole file or a single function body) for
// info leaks and hardcoded secrets. functionName, if non-empty, flags
// findings from a security-sensitive function via InSecurityFunction.
func (a *SecurityAnalyzer) Analyze(content, functionName string, startLine int) []SecurityFinding {
	var findings []SecurityFinding
	inSecFn := functionName != "" && IsSecurityFunction(functionName)

	for _, pat := range DefaultInfoLeakPatterns {
		for _, loc := range pat.Match(content) {
			lineOffset := strings.Count(content[:loc[0]], "\n")
			findings = append(findings, SecurityFinding{
				Type:               pat.Type,
				Severity:           pat.Severity,
				Description:        pat.Description,
				CWE:                pat.CWE,
				LineNumber:         startLine + lineOffset,
				Evidence:           content[loc[0]:loc[1]],
				InSecurityFunction: inSecFn,
			})
		}
	}

	for provider, re := range secretKeyPatterns {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			lineOffset := strings.Count(content[:loc[0]], "\n")
			findings = append(findings, SecurityFinding{
				Type:               "hardcoded_secret",
				Severity:           SeverityCritical,
				Description:        "Hardcoded " + provider + " credential",
				CWE:                "CWE-798",
				LineNumber:         startLine + lineOffset,
				Evidence:           redact(content[loc[0]:loc[1]]),
				InSecurityFunction: inSecFn,
			})
		}
	}

	for _, m := range genericSecretAssignment.FindAllStringSubmatchIndex(content, -1) {
		value := content[m[4]:m[5]]
		if shannonEntropy(value) < highEntropyThreshold {
			continue
		}
		lineOffset := strings.Count(content[:m[0]], "\n")
		findings = append(findings, SecurityFinding{
			Type:               "hardcoded_secret",
			Severity:           SeverityHigh,
			Description:        "High-entropy string assigned to a secret-like variable name",
			CWE:                "CWE-798",
			LineNumber:         startLine + lineOffset,
			Evidence:           redact(value),
			InSecurityFunction: inSecFn,
		})
	}

	return findings
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// shannonEntropy computes the Shannon entropy of s in bits per
// character, the standard heuristic for distinguishing random-looking
// secrets from ordinary identifiers/words.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := map[rune]int{}
	for _, r := range s {
		counts[r]++
	}
	entropy := 0.0
	n := float64(len(s))
	for _, c := range counts {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}
