package debug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nit-test/nit/internal/llm"
)

// GeneratedFix is FixGenerator's output and FixVerifier's input.
type GeneratedFix struct {
	FixedCode   string
	Explanation string
	Confidence  float64
}

// FixGenerationTask is FixGenerator's input.
type FixGenerationTask struct {
	Target     string
	BugReport  BugReport
	RootCause  RootCause
	SourceCode string
}

const fixGenSystemPrompt = "You are a bug-fix generator. Given the original source code, a bug" +
	" report, and its root cause, rewrite the file with the minimal change that fixes the" +
	" defect without altering unrelated behavior. Respond with the complete fixed file" +
	" contents only, no explanation, optionally fenced in a single code block."

// FixGenerator asks the LLM to rewrite a buggy file once RootCauseAnalyzer
// has explained what's wrong with it (spec.md §4.9).
type FixGenerator struct {
	engine *llm.Engine
}

func NewFixGenerator(engine *llm.Engine) *FixGenerator {
	return &FixGenerator{engine: engine}
}

func (g *FixGenerator) Name() string { return "FixGenerator" }

// Generate produces a GeneratedFix for task. The returned FixedCode has
// already had any markdown code fences stripped, the same cleanup every
// LLM-backed builder in internal/agent/build applies to its own output.
func (g *FixGenerator) Generate(ctx context.Context, task FixGenerationTask) (GeneratedFix, error) {
	resp, err := g.engine.Generate(ctx, llm.GenerationRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fixGenSystemPrompt},
			{Role: llm.RoleUser, Content: g.renderPrompt(task)},
		},
		Metadata: llm.Metadata{BuilderName: g.Name(), SourceFile: task.Target},
	})
	if err != nil {
		return GeneratedFix{}, fmt.Errorf("nit/debug: generate fix for %s: %w", task.Target, err)
	}

	return GeneratedFix{
		FixedCode:   stripCodeFences(resp.Text),
		Explanation: task.RootCause.Description,
		Confidence:  task.RootCause.Confidence,
	}, nil
}

func (g *FixGenerator) renderPrompt(task FixGenerationTask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bug: %s\nError: %s\nRoot cause: %s\n\n", task.BugReport.Title,
		task.BugReport.ErrorMessage, task.RootCause.Description)
	if len(task.RootCause.MissingChecks) > 0 {
		fmt.Fprintf(&b, "Missing checks to add: %s\n\n", strings.Join(task.RootCause.MissingChecks, "; "))
	}
	fmt.Fprintf(&b, "Original source (%s):\n%s\n", task.Target, task.SourceCode)
	return b.String()
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:\\w+\\n)?(.*?)```")

// stripCodeFences removes a single enclosing markdown code fence from
// generated code, same cleanup internal/agent/build's pipeline applies
// to builder output — duplicated here rather than imported, since
// build's version is unexported and FixGenerator has no other reason to
// depend on that package.
func stripCodeFences(code string) string {
	if m := fencedBlockPattern.FindStringSubmatch(code); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(code)
}
