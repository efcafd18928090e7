package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/agent/analyze"
	"github.com/nit-test/nit/internal/ast"
	nitcontext "github.com/nit-test/nit/internal/context"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

// IntegrationBuilder generates integration tests, augmenting context with
// the recommended fixtures an IntegrationDepsAnalyzer pass detects
// (spec.md §4.8: "IntegrationBuilder: requires an integration-deps
// analysis; augments context with recommended fixtures").
type IntegrationBuilder struct {
	Assembler        *nitcontext.Assembler
	Parser           *ast.Parser
	DepsAnalyzer     *analyze.IntegrationDepsAnalyzer
	Engine           *llm.Engine
	Registry         *adapter.Registry
	Memory           *memory.Store
	ProjectRoot      string
	EnableValidation bool
	MaxRetries       int
}

func NewIntegrationBuilder(assembler *nitcontext.Assembler, parser *ast.Parser, engine *llm.Engine, registry *adapter.Registry, store *memory.Store, projectRoot string) *IntegrationBuilder {
	return &IntegrationBuilder{
		Assembler:        assembler,
		Parser:           parser,
		DepsAnalyzer:     analyze.NewIntegrationDepsAnalyzer(),
		Engine:           engine,
		Registry:         registry,
		Memory:           store,
		ProjectRoot:      projectRoot,
		EnableValidation: true,
		MaxRetries:       defaultMaxRetries,
	}
}

func (b *IntegrationBuilder) Name() string { return "integration_builder" }

func (b *IntegrationBuilder) Build(ctx context.Context, task BuildTask) (BuildResult, error) {
	assembled, err := b.Assembler.Assemble(ctx, task.SourceFile)
	if err != nil {
		return BuildResult{}, fmt.Errorf("nit/build: assemble context for %s: %w", task.SourceFile, err)
	}

	ad, err := selectAdapter(b.Registry, task.Framework, b.ProjectRoot)
	if err != nil {
		return BuildResult{}, err
	}

	depsReport := b.analyzeDeps(ctx, task.SourceFile, assembled.Language)

	hints := memoryHints(b.Memory, assembled.Language)
	contextText := renderAssembledContext(assembled)
	if depsReport.NeedsIntegrationTests {
		contextText += "\n\n" + renderIntegrationDeps(depsReport)
	}
	messages := renderMessages(ad.PromptTemplate(), contextText, hints)

	meta := llm.Metadata{
		TemplateName: "integration_test",
		BuilderName:  b.Name(),
		SourceFile:   task.SourceFile,
	}
	outcome, err := runGenerateAndValidate(ctx, b.Engine, ad, messages, meta, b.MaxRetries, b.EnableValidation)
	if err != nil {
		return BuildResult{}, err
	}

	errSummary := strings.Join(outcome.result.Errors, "; ")
	recordOutcome(b.Memory, outcome.result.Valid, outcome.code, assembled.Language, errSummary)

	return BuildResult{
		TestCode:         outcome.code,
		ValidationPassed: outcome.result.Valid,
		TokensUsed:       outcome.tokensUsed,
		OutputFile:       task.OutputFile,
		Model:            outcome.model,
	}, nil
}

// analyzeDeps re-parses the source file to feed IntegrationDepsAnalyzer,
// since AssembledContext only keeps rendered function signatures, not
// the structured ast.ParseResult the analyzer needs.
func (b *IntegrationBuilder) analyzeDeps(ctx context.Context, sourceFile, language string) analyze.IntegrationDependencyReport {
	content, err := os.ReadFile(sourceFile)
	if err != nil {
		return analyze.IntegrationDependencyReport{FilePath: sourceFile}
	}
	parsed, err := b.Parser.Parse(ctx, content, sourceFile)
	if err != nil {
		return analyze.IntegrationDependencyReport{FilePath: sourceFile}
	}
	return b.DepsAnalyzer.Analyze(sourceFile, parsed, language)
}

func renderIntegrationDeps(report analyze.IntegrationDependencyReport) string {
	var sb strings.Builder
	sb.WriteString("Integration dependencies detected:\n")
	for _, dep := range report.Dependencies {
		fmt.Fprintf(&sb, "- %s via %s (used by: %s); suggested mocks: %s\n",
			dep.DependencyType, dep.ModuleName, strings.Join(dep.UsedByFuncs, ", "), strings.Join(dep.MockStrategies, ", "))
	}
	if len(report.RecommendedFixtures) > 0 {
		fmt.Fprintf(&sb, "Recommended fixtures: %s\n", strings.Join(report.RecommendedFixtures, ", "))
	}
	return sb.String()
}
