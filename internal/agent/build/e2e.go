package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/config"
	nitcontext "github.com/nit-test/nit/internal/context"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

// RouteInfo describes the HTTP route or user flow an E2ETask targets.
type RouteInfo struct {
	Method      string
	Path        string
	Params      []string
	HandlerFile string
}

// HealRequest is what an E2EBuilder hands to a Healer when a generated
// test passes validation but fails at runtime.
type HealRequest struct {
	TestCode     string
	RunResult    adapter.RunResult
	Messages     []llm.Message
	TestFilePath string
	ProjectRoot  string
}

// HealResult is a Healer's verdict on one healing attempt.
type HealResult struct {
	Healed     bool
	HealedCode string
	IsFlaky    bool
	Messages   []string
}

// Healer is implemented by internal/agent/heal's SelfHealingEngine.
// Declared here, not there, so E2EBuilder never imports the heal
// package — heal imports build's types instead, keeping the dependency
// one-directional.
type Healer interface {
	Heal(ctx context.Context, req HealRequest) (HealResult, error)
}

// E2ETask is the E2EBuilder-specific task input (spec.md §4.8:
// "E2EBuilder: requires the Playwright (or Cypress) adapter plus
// RouteInfo and optional AuthConfig").
type E2ETask struct {
	BuildTask
	RouteInfo       *RouteInfo
	Auth            *config.E2EAuthConfig
	BaseURL         string
	FlowDescription string
}

const defaultE2ETimeout = 300 * time.Second

// E2EBuilder generates end-to-end tests against the Playwright or
// Cypress adapter, with an optional self-healing retry when a
// syntactically valid test fails at runtime.
type E2EBuilder struct {
	Assembler         *nitcontext.Assembler
	Engine            *llm.Engine
	Registry          *adapter.Registry
	Memory            *memory.Store
	Healer            Healer
	ProjectRoot       string
	EnableValidation  bool
	EnableSelfHealing bool
	MaxRetries        int
}

func NewE2EBuilder(assembler *nitcontext.Assembler, engine *llm.Engine, registry *adapter.Registry, store *memory.Store, projectRoot string) *E2EBuilder {
	return &E2EBuilder{
		Assembler:         assembler,
		Engine:            engine,
		Registry:          registry,
		Memory:            store,
		ProjectRoot:       projectRoot,
		EnableValidation:  true,
		EnableSelfHealing: true,
		MaxRetries:        defaultMaxRetries,
	}
}

func (b *E2EBuilder) Name() string { return "e2e_builder" }

func (b *E2EBuilder) Build(ctx context.Context, task E2ETask) (BuildResult, error) {
	framework := task.Framework
	if framework == "" {
		framework = "playwright"
	}
	ad, err := selectAdapter(b.Registry, framework, b.ProjectRoot)
	if err != nil {
		return BuildResult{}, err
	}

	contextText := b.assembleE2EContext(ctx, task)
	hints := memoryHints(b.Memory, "typescript")
	messages := renderMessages(ad.PromptTemplate(), contextText, hints)

	meta := llm.Metadata{
		TemplateName: "e2e_test",
		BuilderName:  b.Name(),
		SourceFile:   task.SourceFile,
	}
	outcome, err := runGenerateAndValidate(ctx, b.Engine, ad, messages, meta, b.MaxRetries, b.EnableValidation)
	if err != nil {
		return BuildResult{}, err
	}

	code := outcome.code
	if outcome.result.Valid && task.OutputFile != "" {
		code, outcome.result = b.runAndMaybeHeal(ctx, code, ad, task, messages)
	}

	errSummary := strings.Join(outcome.result.Errors, "; ")
	recordOutcome(b.Memory, outcome.result.Valid, code, "typescript", errSummary)

	return BuildResult{
		TestCode:         code,
		ValidationPassed: outcome.result.Valid,
		TokensUsed:       outcome.tokensUsed,
		OutputFile:       task.OutputFile,
		Model:            outcome.model,
	}, nil
}

func (b *E2EBuilder) assembleE2EContext(ctx context.Context, task E2ETask) string {
	var assembled *nitcontext.AssembledContext
	if task.SourceFile != "" {
		if c, err := b.Assembler.Assemble(ctx, task.SourceFile); err == nil {
			assembled = c
		}
	}
	if assembled == nil {
		assembled = &nitcontext.AssembledContext{Language: "typescript"}
	}

	var sb strings.Builder
	sb.WriteString(renderAssembledContext(assembled))

	if task.RouteInfo != nil {
		fmt.Fprintf(&sb, "\nRoute: %s %s\n", task.RouteInfo.Method, task.RouteInfo.Path)
		if len(task.RouteInfo.Params) > 0 {
			fmt.Fprintf(&sb, "Params: %s\n", strings.Join(task.RouteInfo.Params, ", "))
		}
	}
	if task.Auth != nil {
		fmt.Fprintf(&sb, "\nAuthentication strategy: %s\n", task.Auth.Strategy)
	}
	if task.BaseURL != "" {
		fmt.Fprintf(&sb, "Base URL: %s\n", task.BaseURL)
	}
	if task.FlowDescription != "" {
		fmt.Fprintf(&sb, "Flow: %s\n", task.FlowDescription)
	}
	return sb.String()
}

// runAndMaybeHeal implements step 7: write the test to disk, run it,
// and if it fails at runtime with a selector- or timeout-shaped
// failure, hand it to the configured Healer (spec.md §4.8 step 7,
// §4.10). Only runs once, on the first validation pass, mirroring the
// original's "avoid excessive test runs" comment.
func (b *E2EBuilder) runAndMaybeHeal(ctx context.Context, code string, ad adapter.TestAdapter, task E2ETask, messages []llm.Message) (string, adapter.ValidationResult) {
	outPath := filepath.Join(b.ProjectRoot, task.OutputFile)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return code, ad.Validate(code)
	}
	if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
		return code, ad.Validate(code)
	}

	runResult, err := ad.RunTests(ctx, b.ProjectRoot, []string{outPath}, defaultE2ETimeout, false)
	if err != nil || runResult.Success || !b.EnableSelfHealing || b.Healer == nil {
		return code, ad.Validate(code)
	}

	healed, err := b.Healer.Heal(ctx, HealRequest{
		TestCode:     code,
		RunResult:    runResult,
		Messages:     messages,
		TestFilePath: outPath,
		ProjectRoot:  b.ProjectRoot,
	})
	if err != nil {
		return code, ad.Validate(code)
	}

	if healed.IsFlaky && b.Memory != nil {
		_ = b.Memory.AddFailedPattern(memory.FailedPattern{
			Pattern: "flaky_test",
			Reason:  fmt.Sprintf("test at %s is flaky", task.OutputFile),
		})
	}
	if !healed.Healed {
		return code, ad.Validate(code)
	}

	return healed.HealedCode, ad.Validate(healed.HealedCode)
}
