// Package orchestrator composes nit's detector, analyzer, builder,
// debugger, healer, and watcher agents into the four commands spec.md
// §4.13 names: generate (detect -> analyze -> dispatch builders ->
// verify -> report), verify-fix (RootCauseAnalyzer -> FixGenerator ->
// FixVerifier -> report), drift (DriftWatcher in test or baseline
// mode), and audit (SecurityAnalyzer -> report). It owns Config,
// LLMEngine, GlobalMemory, and AdapterRegistry for the run's duration
// and hands every agent a read-only *agent.RunContext instead of a
// back-pointer to itself (spec.md §3's Ownership subsection, §9's
// cyclic-reference fix).
package orchestrator

import (
	"fmt"
	"path/filepath"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/agent"
	"github.com/nit-test/nit/internal/agent/analyze"
	"github.com/nit-test/nit/internal/agent/build"
	"github.com/nit-test/nit/internal/agent/debug"
	"github.com/nit-test/nit/internal/agent/detect"
	"github.com/nit-test/nit/internal/agent/heal"
	"github.com/nit-test/nit/internal/agent/report"
	"github.com/nit-test/nit/internal/agent/watch"
	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/config"
	nitcontext "github.com/nit-test/nit/internal/context"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/logging"
	"github.com/nit-test/nit/internal/memory"
)

// maxConcurrentAgents bounds the global semaphore RunContext.Acquire
// guards (spec.md §5: "worker-pool scheduling via bounded goroutine
// pools"). Independent of per-builder LLM rate limiting, which
// internal/llm's Engine already enforces on its own token bucket.
const maxConcurrentAgents = 8

// Orchestrator holds every run-scoped collaborator plus the
// longer-lived agent instances built from it.
type Orchestrator struct {
	ProjectRoot string
	RC          *agent.RunContext
	Logger      *logging.Logger

	parser    *ast.Parser
	assembler *nitcontext.Assembler

	stackDetector      *detect.StackDetector
	frameworkDetector  *detect.FrameworkDetector
	dependencyDetector *detect.DependencyDetector
	infraDetector      *detect.InfraDetector
	llmUsageDetector   *detect.LLMUsageDetector

	codeAnalyzer        *analyze.CodeAnalyzer
	coverageAnalyzer    *analyze.CoverageAnalyzer
	securityAnalyzer    *analyze.SecurityAnalyzer
	patternAnalyzer     *analyze.PatternAnalyzer
	diffAnalyzer        *analyze.DiffAnalyzer
	semanticGapDetector *analyze.SemanticGapDetector

	unitBuilder  *build.UnitBuilder
	intBuilder   *build.IntegrationBuilder
	e2eBuilder   *build.E2EBuilder
	infraBuilder *build.InfraBuilder

	bugDetector  *debug.BugDetector
	rootCause    *debug.RootCauseAnalyzer
	fixGenerator *debug.FixGenerator
	fixVerifier  *debug.FixVerifier

	driftRegistry *watch.Registry
	driftWatcher  *watch.DriftWatcher

	slack    *report.SlackReporter
	github   *report.GitHubReporter
	platform *report.PlatformSink
}

// New wires every collaborator rooted at projectRoot per cfg. It also
// runs FixVerifier's crash-recovery sweep (spec.md §4.9: a backup left
// behind by a process that died mid-verification must be restored
// before any new work starts).
func New(cfg *config.Config, projectRoot string) (*Orchestrator, error) {
	logger := logging.Default()

	if restored, err := debug.RestorePendingFixes(projectRoot); err != nil {
		logger.Error("startup: crash-recovery sweep failed", "error", err)
	} else if restored {
		logger.Warn("startup: restored a fix left pending by a previous interrupted run")
	}

	client := llm.NewClientForConfig(cfg)
	engine := llm.New(cfg, client)

	memPath := filepath.Join(projectRoot, ".nit", "memory.json")
	store, err := memory.Open(memPath)
	if err != nil {
		return nil, fmt.Errorf("nit/orchestrator: open memory store: %w", err)
	}

	registry := adapter.NewRegistry()
	parser := ast.NewParser()
	tokenizer := llm.NewTokenizer(cfg.LLM.Model)
	assembler := nitcontext.NewAssembler(parser, tokenizer, cfg.LLM.MaxTokens)

	fixVerifier, err := debug.NewFixVerifier(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("nit/orchestrator: init fix verifier: %w", err)
	}

	driftRegistry := watch.NewRegistry()
	driftWatcher, err := watch.New(projectRoot, engine, driftRegistry)
	if err != nil {
		return nil, fmt.Errorf("nit/orchestrator: init drift watcher: %w", err)
	}

	rc := &agent.RunContext{
		Config:   cfg,
		Engine:   engine,
		Memory:   store,
		Adapters: registry,
		Limiter:  make(chan struct{}, maxConcurrentAgents),
	}

	return &Orchestrator{
		ProjectRoot: projectRoot,
		RC:          rc,
		Logger:      logger,

		parser:    parser,
		assembler: assembler,

		stackDetector:      detect.NewStackDetector(),
		frameworkDetector:  detect.NewFrameworkDetector(cfg.Detection),
		dependencyDetector: detect.NewDependencyDetector(),
		infraDetector:      detect.NewInfraDetector(),
		llmUsageDetector:   detect.NewLLMUsageDetector(),

		codeAnalyzer:        analyze.NewCodeAnalyzer(parser),
		coverageAnalyzer:    analyze.NewCoverageAnalyzer(),
		securityAnalyzer:    analyze.NewSecurityAnalyzer(),
		patternAnalyzer:     analyze.NewPatternAnalyzer(),
		diffAnalyzer:        analyze.NewDiffAnalyzer(),
		semanticGapDetector: analyze.NewSemanticGapDetector(engine, projectRoot),

		unitBuilder:  build.NewUnitBuilder(assembler, engine, registry, store, projectRoot),
		intBuilder:   build.NewIntegrationBuilder(assembler, parser, engine, registry, store, projectRoot),
		e2eBuilder:   build.NewE2EBuilder(assembler, engine, registry, store, projectRoot),
		infraBuilder: build.NewInfraBuilder(projectRoot, false, ""),

		bugDetector:  debug.NewBugDetector(),
		rootCause:    debug.NewRootCauseAnalyzer(engine, projectRoot),
		fixGenerator: debug.NewFixGenerator(engine),
		fixVerifier:  fixVerifier,

		driftRegistry: driftRegistry,
		driftWatcher:  driftWatcher,

		slack:    report.NewSlackReporter(cfg.Report.SlackWebhook, logger),
		github:   report.NewGitHubReporter(cfg.Report.GitHubRepo, cfg.Report.GitHubToken, cfg.Report.GitHubBase, projectRoot, logger),
		platform: report.NewPlatformSink(cfg.Platform.URL, cfg.Platform.APIKey, logger),
	}, nil
}

// Close releases the orchestrator's owned resources (currently just
// flushing GlobalMemory's in-memory state, which is already persisted
// on every mutating call — Close exists so callers have one place to
// extend if a collaborator ever needs teardown).
func (o *Orchestrator) Close() error {
	return nil
}

// HealEngine wires SelfHealingEngine (which implements build.Healer) to
// ad so E2EBuilder can hand failing e2e tests to it for regeneration.
// Kept separate from New because the concrete adapter depends on the
// project's detected framework, known only after Generate runs
// detection.
func (o *Orchestrator) HealEngine(ad adapter.TestAdapter) *heal.SelfHealingEngine {
	return heal.NewSelfHealingEngine(o.RC.Engine, ad)
}
