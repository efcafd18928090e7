package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/nit-test/nit/internal/adapter"
	nitcontext "github.com/nit-test/nit/internal/context"
	"github.com/nit-test/nit/internal/llm"
	"github.com/nit-test/nit/internal/memory"
)

// UnitBuilder generates unit tests for a single source file against any
// registered unit TestAdapter (spec.md §4.8: "UnitBuilder: any unit
// adapter").
type UnitBuilder struct {
	Assembler        *nitcontext.Assembler
	Engine           *llm.Engine
	Registry         *adapter.Registry
	Memory           *memory.Store
	ProjectRoot      string
	EnableValidation bool
	MaxRetries       int
}

func NewUnitBuilder(assembler *nitcontext.Assembler, engine *llm.Engine, registry *adapter.Registry, store *memory.Store, projectRoot string) *UnitBuilder {
	return &UnitBuilder{
		Assembler:        assembler,
		Engine:           engine,
		Registry:         registry,
		Memory:           store,
		ProjectRoot:      projectRoot,
		EnableValidation: true,
		MaxRetries:       defaultMaxRetries,
	}
}

func (b *UnitBuilder) Name() string { return "unit_builder" }

// Build runs the nine-step contract for one BuildTask.
func (b *UnitBuilder) Build(ctx context.Context, task BuildTask) (BuildResult, error) {
	assembled, err := b.Assembler.Assemble(ctx, task.SourceFile)
	if err != nil {
		return BuildResult{}, fmt.Errorf("nit/build: assemble context for %s: %w", task.SourceFile, err)
	}

	ad, err := selectAdapter(b.Registry, task.Framework, b.ProjectRoot)
	if err != nil {
		return BuildResult{}, err
	}

	hints := memoryHints(b.Memory, assembled.Language)
	messages := renderMessages(ad.PromptTemplate(), renderAssembledContext(assembled), hints)

	meta := llm.Metadata{
		TemplateName: "unit_test",
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

// renderAssembledContext flattens an AssembledContext into the text block
// a builder's user message embeds after the adapter's body instructions
// (spec.md §3 data model; §4.4 step 5's priority windowing already chose
// what to include — rendering here is pure formatting).
func renderAssembledContext(c *nitcontext.AssembledContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source file: %s (%s)\n\n", c.SourcePath, c.Language)
	b.WriteString("```\n")
	b.WriteString(c.SourceCode)
	b.WriteString("\n```\n")

	if len(c.Functions) > 0 {
		b.WriteString("\nFunction signatures:\n")
		for _, sig := range c.Functions {
			fmt.Fprintf(&b, "- %s\n", sig)
		}
	}

	if len(c.Related) > 0 {
		b.WriteString("\nRelated files:\n")
		for _, rel := range c.Related {
			fmt.Fprintf(&b, "--- %s (%s) ---\n%s\n", rel.Path, rel.Reason, rel.Content)
		}
	}

	if c.TestPattern.NamingStyle != "" || c.TestPattern.AssertionStyle != "" {
		fmt.Fprintf(&b, "\nExisting test conventions: naming=%s, assertions=%s\n",
			c.TestPattern.NamingStyle, c.TestPattern.AssertionStyle)
		if c.TestPattern.SampleTest != "" {
			fmt.Fprintf(&b, "Sample existing test:\n%s\n", c.TestPattern.SampleTest)
		}
	}

	return b.String()
}
