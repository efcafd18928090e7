package debug

import (
	"context"
	"time"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/llm"
)

// fakeDebugClient is a scriptable llm.Client, mirroring
// internal/agent/build's fakeBuildClient pattern.
type fakeDebugClient struct {
	responses []llm.Response
	err       error
	calls     int
}

func (f *fakeDebugClient) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Response, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return llm.Response{}, f.err
	}
	if f.calls < len(f.responses) {
		return f.responses[f.calls], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeDebugClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

func newDebugTestEngine(client llm.Client) *llm.Engine {
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.RequestsPerMin = 6000
	cfg.LLM.MaxRetries = 0
	return llm.New(cfg, client)
}

// fakeTestAdapter is a scriptable adapter.TestAdapter: each call to
// RunTests pops the next scripted RunResult, so a test can script the
// reproduction-test run and the full-suite run separately, the same way
// the original's test suite uses run_tests.side_effect = [repro, suite].
type fakeTestAdapter struct {
	results []adapter.RunResult
	errs    []error
	calls   int
}

func (f *fakeTestAdapter) Name() string                     { return "fake" }
func (f *fakeTestAdapter) Language() string                 { return "python" }
func (f *fakeTestAdapter) Detect(string) bool               { return true }
func (f *fakeTestAdapter) TestPattern() []string            { return nil }
func (f *fakeTestAdapter) PromptTemplate() adapter.Template { return adapter.Template{} }
func (f *fakeTestAdapter) Validate(string) adapter.ValidationResult {
	return adapter.ValidationResult{Valid: true}
}

func (f *fakeTestAdapter) RunTests(ctx context.Context, projectRoot string, testFiles []string,
	timeout time.Duration, collectCoverage bool) (adapter.RunResult, error) {
	idx := f.calls
	f.calls++

	var result adapter.RunResult
	if idx < len(f.results) {
		result = f.results[idx]
	} else if len(f.results) > 0 {
		result = f.results[len(f.results)-1]
	}

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return result, err
}
