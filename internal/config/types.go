// Package config defines nit's configuration schema and loads it from a
// project-local YAML file. Unlike the teacher's package-level singleton
// (cmd/aleutian/config/loader.go), a *Config value here is returned from
// Load and owned by whichever Orchestrator run loads it — per the data
// model's ownership rule that the Orchestrator exclusively owns Config for
// the duration of one run.
package config

// WorkspaceTool names a monorepo tool, if any, used to resolve
// per-package overrides.
type WorkspaceTool string

const (
	WorkspaceNone      WorkspaceTool = "none"
	WorkspaceTurborepo WorkspaceTool = "turborepo"
	WorkspaceNx        WorkspaceTool = "nx"
	WorkspacePNPM      WorkspaceTool = "pnpm"
	WorkspaceYarn      WorkspaceTool = "yarn"
	WorkspaceCargo     WorkspaceTool = "cargo"
)

// PlatformMode controls how LLMEngine routes requests.
type PlatformMode string

const (
	PlatformModePlatform PlatformMode = "platform"
	PlatformModeBYOK     PlatformMode = "byok"
	PlatformModeDisabled PlatformMode = "disabled"
)

// LLMMode names the transport nit uses to reach the model.
type LLMMode string

const (
	LLMModeBuiltin LLMMode = "builtin"
	LLMModeCLI     LLMMode = "cli"
	LLMModeCustom  LLMMode = "custom"
	LLMModeOllama  LLMMode = "ollama"
)

// ProjectConfig identifies the project nit operates on.
type ProjectConfig struct {
	Root            string        `yaml:"root" validate:"required"`
	PrimaryLanguage string        `yaml:"primary_language" validate:"required"`
	WorkspaceTool   WorkspaceTool `yaml:"workspace_tool"`
}

// TestingConfig names the frameworks used for each test tier.
type TestingConfig struct {
	UnitFramework        string `yaml:"unit_framework"`
	E2EFramework         string `yaml:"e2e_framework"`
	IntegrationFramework string `yaml:"integration_framework"`
}

// LLMConfig configures the model backend.
type LLMConfig struct {
	Provider       string  `yaml:"provider" validate:"required"`
	Model          string  `yaml:"model" validate:"required"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Mode           LLMMode `yaml:"mode"`
	Temperature    float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int     `yaml:"max_tokens" validate:"gte=1"`
	RequestsPerMin int     `yaml:"requests_per_minute" validate:"gte=1"`
	MaxRetries     int     `yaml:"max_retries" validate:"gte=0"`
}

// PlatformConfig configures the optional nit Platform proxy.
type PlatformConfig struct {
	URL    string       `yaml:"url"`
	APIKey string       `yaml:"api_key"`
	Mode   PlatformMode `yaml:"mode"`
}

// E2EAuthConfig configures login/session bootstrap for E2E runs.
type E2EAuthConfig struct {
	Strategy         string `yaml:"strategy"`
	LoginURL         string `yaml:"login_url"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	Token            string `yaml:"token"`
	TokenHeader      string `yaml:"token_header"`
	TokenPrefix      string `yaml:"token_prefix"`
	CookieName       string `yaml:"cookie_name"`
	CookieValue      string `yaml:"cookie_value"`
	CustomScript     string `yaml:"custom_script"`
	SuccessIndicator string `yaml:"success_indicator"`
	TimeoutSeconds   int    `yaml:"timeout"`
}

// E2EConfig configures end-to-end test generation.
type E2EConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Auth    E2EAuthConfig `yaml:"auth"`
}

// PackageOverride layers package-specific settings over the global config.
type PackageOverride struct {
	E2E E2EConfig `yaml:"e2e"`
}

// ReportConfig configures outbound reporters.
type ReportConfig struct {
	SlackWebhook string   `yaml:"slack_webhook"`
	EmailAlerts  []string `yaml:"email_alerts"`
	GitHubRepo   string   `yaml:"github_repo"` // "owner/name"
	GitHubToken  string   `yaml:"github_token"`
	GitHubBase   string   `yaml:"github_base_branch"` // defaults to "main"
}

// WorkspaceConfig configures monorepo package discovery.
type WorkspaceConfig struct {
	AutoDetect bool     `yaml:"auto_detect"`
	Packages   []string `yaml:"packages"`
}

// DetectionConfig exposes the framework-detection thresholds that
// spec.md's Open Questions flagged as magic numbers needing to be
// tunable. Defaults match original_source/agents/detectors/framework.py.
type DetectionConfig struct {
	BreadthBonusCap      float64 `yaml:"breadth_bonus_cap"`
	MinConfidence        float64 `yaml:"min_confidence"`
	LLMFallbackThreshold float64 `yaml:"llm_fallback_threshold"`
}

// Config is the root nit configuration, loaded from a project's
// nit.yaml (or .nit/config.yaml).
type Config struct {
	Project   ProjectConfig              `yaml:"project"`
	Testing   TestingConfig              `yaml:"testing"`
	LLM       LLMConfig                  `yaml:"llm"`
	Platform  PlatformConfig             `yaml:"platform"`
	E2E       E2EConfig                  `yaml:"e2e"`
	Packages  map[string]PackageOverride `yaml:"packages"`
	Report    ReportConfig               `yaml:"report"`
	Workspace WorkspaceConfig            `yaml:"workspace"`
	Detection DetectionConfig            `yaml:"detection"`
}

// DefaultDetectionConfig returns the thresholds original_source hard-codes.
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		BreadthBonusCap:      0.10,
		MinConfidence:        0.3,
		LLMFallbackThreshold: 0.8,
	}
}

// Default returns a Config populated with nit's defaults, used both for
// bootstrapping a first-run config file and for filling in zero-valued
// fields after YAML unmarshaling.
func Default() *Config {
	return &Config{
		Testing: TestingConfig{
			UnitFramework: "auto",
		},
		LLM: LLMConfig{
			Mode:           LLMModeBuiltin,
			Temperature:    0.2,
			MaxTokens:      4096,
			RequestsPerMin: 60,
			MaxRetries:     3,
		},
		Platform:  PlatformConfig{Mode: PlatformModeDisabled},
		Workspace: WorkspaceConfig{AutoDetect: true},
		Detection: DefaultDetectionConfig(),
	}
}

// ForPackage resolves the effective E2E config for a package path,
// merging any PackageOverride over the global E2E config.
func (c *Config) ForPackage(pkgPath string) E2EConfig {
	eff := c.E2E
	override, ok := c.Packages[pkgPath]
	if !ok {
		return eff
	}
	if override.E2E.BaseURL != "" {
		eff.BaseURL = override.E2E.BaseURL
	}
	if override.E2E.Enabled {
		eff.Enabled = override.E2E.Enabled
	}
	if override.E2E.Auth != (E2EAuthConfig{}) {
		eff.Auth = override.E2E.Auth
	}
	return eff
}
