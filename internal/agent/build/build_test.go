package build

import (
	"context"

	"github.com/nit-test/nit/internal/ast"
	"github.com/nit-test/nit/internal/config"
	nitcontext "github.com/nit-test/nit/internal/context"
	"github.com/nit-test/nit/internal/llm"
)

// fakeBuildClient is a scriptable llm.Client shared by every builder's
// tests, mirroring internal/agent/analyze/semantic_gap_test.go's
// fakeGapClient pattern.
type fakeBuildClient struct {
	responses []llm.Response
	err       error
	calls     int
}

func (f *fakeBuildClient) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Response, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return llm.Response{}, f.err
	}
	if f.calls < len(f.responses) {
		return f.responses[f.calls], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeBuildClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

func newBuildTestEngine(client llm.Client) *llm.Engine {
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.RequestsPerMin = 6000
	cfg.LLM.MaxRetries = 0
	return llm.New(cfg, client)
}

func newTestAssembler() *nitcontext.Assembler {
	parser := ast.NewParser()
	tokenizer := llm.NewTokenizer("gpt-4o")
	return nitcontext.NewAssembler(parser, tokenizer, 8000)
}
