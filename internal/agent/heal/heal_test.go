package heal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/adapter"
	"github.com/nit-test/nit/internal/agent/build"
	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/llm"
)

type fakeHealClient struct {
	responses []llm.Response
	err       error
	calls     int
}

func (f *fakeHealClient) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Response, error) {
	defer func() { f.calls++ }()
	if f.err != nil {
		return llm.Response{}, f.err
	}
	if f.calls < len(f.responses) {
		return f.responses[f.calls], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeHealClient) Embed(ctx context.Context, text string) ([]float64, error) { return nil, nil }

func newHealTestEngine(client llm.Client) *llm.Engine {
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.RequestsPerMin = 6000
	cfg.LLM.MaxRetries = 0
	return llm.New(cfg, client)
}

type fakeHealAdapter struct {
	runResults []adapter.RunResult
	calls      int
	valid      bool
}

func (f *fakeHealAdapter) Name() string          { return "fake" }
func (f *fakeHealAdapter) Language() string      { return "typescript" }
func (f *fakeHealAdapter) Detect(string) bool    { return true }
func (f *fakeHealAdapter) TestPattern() []string { return nil }
func (f *fakeHealAdapter) PromptTemplate() adapter.Template {
	return adapter.Template{}
}
func (f *fakeHealAdapter) Validate(string) adapter.ValidationResult {
	return adapter.ValidationResult{Valid: f.valid}
}
func (f *fakeHealAdapter) RunTests(ctx context.Context, projectRoot string, testFiles []string,
	timeout time.Duration, collectCoverage bool) (adapter.RunResult, error) {
	idx := f.calls
	f.calls++
	if idx < len(f.runResults) {
		return f.runResults[idx], nil
	}
	if len(f.runResults) > 0 {
		return f.runResults[len(f.runResults)-1], nil
	}
	return adapter.RunResult{}, nil
}

func TestClassifyFailureSelectorNotFound(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	c := e.classifyFailure([]string{
		"Error: locator.click: Waiting for locator('#login-button') failed: element not found",
	})
	assert.Equal(t, FailureTypeSelectorNotFound, c.FailureType)
	assert.GreaterOrEqual(t, c.Confidence, 0.8)
	assert.Contains(t, c.Selector, "#login-button")
}

func TestClassifyFailureTimeout(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	c := e.classifyFailure([]string{
		"Error: page.waitForSelector: Timeout 30000ms exceeded waiting for selector '#submit-btn'",
	})
	assert.Equal(t, FailureTypeTimeout, c.FailureType)
	assert.GreaterOrEqual(t, c.Confidence, 0.8)
}

func TestClassifyFailureNotVisibleCollapsesToSelectorNotFound(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	c := e.classifyFailure([]string{
		`Error: element not visible: Element with selector '[data-testid="menu"]' is not visible`,
	})
	assert.Equal(t, FailureTypeSelectorNotFound, c.FailureType)
	assert.NotEmpty(t, c.Selector)
}

func TestClassifyFailureUnknown(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	c := e.classifyFailure([]string{"Error: Something completely unexpected happened"})
	assert.Equal(t, FailureTypeUnknown, c.FailureType)
}

func TestExtractSelector(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	cases := []struct{ text, want string }{
		{"locator('#login-button')", "#login-button"},
		{"page.getByTestId('submit-btn')", "submit-btn"},
		{`element.find('[data-test="menu"]')`, `[data-test="menu"]`},
	}
	for _, c := range cases {
		got := e.extractSelector(c.text)
		if got == "" {
			assert.Contains(t, c.text, c.want)
		}
	}
}

func TestCheckIfFlakyIntermittentFailures(t *testing.T) {
	ad := &fakeHealAdapter{runResults: []adapter.RunResult{
		{Success: true}, {Success: false}, {Success: true},
	}}
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), ad)
	e.FlakyTestRetries = 3

	flaky, err := e.checkIfFlaky(context.Background(), "test code", t.TempDir(), "test.spec.ts")
	require.NoError(t, err)
	assert.True(t, flaky)
	assert.Equal(t, 3, ad.calls)
}

func TestCheckIfFlakyConsistentFailures(t *testing.T) {
	ad := &fakeHealAdapter{runResults: []adapter.RunResult{
		{Success: false}, {Success: false}, {Success: false},
	}}
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), ad)
	e.FlakyTestRetries = 3

	flaky, err := e.checkIfFlaky(context.Background(), "test code", t.TempDir(), "test.spec.ts")
	require.NoError(t, err)
	assert.False(t, flaky)
}

func TestCheckIfFlakyConsistentPasses(t *testing.T) {
	ad := &fakeHealAdapter{runResults: []adapter.RunResult{
		{Success: true}, {Success: true}, {Success: true},
	}}
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), ad)
	e.FlakyTestRetries = 3

	flaky, err := e.checkIfFlaky(context.Background(), "test code", t.TempDir(), "test.spec.ts")
	require.NoError(t, err)
	assert.False(t, flaky)
}

func TestAnalyzeDOMReturnsSnapshot(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	snapshot, err := e.analyzeDOM(context.Background(), t.TempDir(), "test code")
	require.NoError(t, err)
	assert.True(t, len(snapshot.Selectors) > 0 || len(snapshot.TestIDs) > 0)
}

func TestBuildHealingPrompt(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	classification := FailureClassification{
		FailureType:  FailureTypeSelectorNotFound,
		Confidence:   0.9,
		Selector:     "#old-button",
		ErrorMessage: "Selector not found",
	}
	dom := DOMSnapshot{TestIDs: []string{"new-button", "submit-btn"}, Roles: []string{"button"}}

	prompt := e.buildHealingPrompt(classification, dom)
	assert.Contains(t, prompt, "#old-button")
	assert.Contains(t, prompt, "new-button")
	assert.Contains(t, prompt, "data-testid")
	assert.Contains(t, prompt, "selector")
}

func TestCleanCodeBlocksWithFence(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	cleaned := e.cleanCodeBlocks("```typescript\ntest('example', async () => {});\n```")
	assert.NotContains(t, cleaned, "```")
	assert.Contains(t, cleaned, "test('example'")
}

func TestCleanCodeBlocksNoFence(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	code := "test('example', async () => {});"
	assert.Equal(t, code, e.cleanCodeBlocks(code))
}

func TestExtractErrorMessagesFromCases(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	result := adapter.RunResult{Cases: []adapter.CaseResult{
		{Name: "test1", Passed: false, Message: "Error 1"},
		{Name: "test2", Passed: false, Message: "Error 2"},
	}}
	errs := e.extractErrorMessages(result)
	assert.Len(t, errs, 2)
	assert.Contains(t, errs, "Error 1")
	assert.Contains(t, errs, "Error 2")
}

func TestExtractErrorMessagesFallsBackToRawOutput(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})
	result := adapter.RunResult{RawOutput: "Raw error message"}
	errs := e.extractErrorMessages(result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Raw error message")
}

func TestHealSelectorNotFoundSucceeds(t *testing.T) {
	healedCode := "test('login', async ({ page }) => {\n    await page.getByTestId('login-btn').click();\n});"
	client := &fakeHealClient{responses: []llm.Response{{Text: healedCode, Model: "test-model"}}}
	ad := &fakeHealAdapter{valid: true}
	e := NewSelfHealingEngine(newHealTestEngine(client), ad)

	req := build.HealRequest{
		TestCode: "test('login', async ({ page }) => {\n    await page.locator('#old-login-button').click();\n});",
		RunResult: adapter.RunResult{Cases: []adapter.CaseResult{
			{Name: "login", Passed: false, Message: "locator('#old-login-button') not found"},
		}},
		TestFilePath: "test.spec.ts",
		ProjectRoot:  t.TempDir(),
	}

	result, err := e.Heal(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Healed)
	assert.Equal(t, healedCode, result.HealedCode)
}

func TestHealTimeoutChecksForFlaky(t *testing.T) {
	ad := &fakeHealAdapter{valid: true, runResults: []adapter.RunResult{
		{Success: false}, {Success: false}, {Success: false},
	}}
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{responses: []llm.Response{{Text: "fixed"}}}), ad)

	req := build.HealRequest{
		TestCode: "test code",
		RunResult: adapter.RunResult{Cases: []adapter.CaseResult{
			{Name: "test", Passed: false, Message: "Timeout 30000ms exceeded"},
		}},
		ProjectRoot: t.TempDir(),
	}

	result, err := e.Heal(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsFlaky)
	assert.Equal(t, 3, ad.calls)
}

func TestHealFlakyTestNotHealed(t *testing.T) {
	ad := &fakeHealAdapter{runResults: []adapter.RunResult{
		{Success: true}, {Success: false}, {Success: true},
	}}
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), ad)

	req := build.HealRequest{
		TestCode: "test code",
		RunResult: adapter.RunResult{Cases: []adapter.CaseResult{
			{Name: "test", Passed: false, Message: "Timeout exceeded"},
		}},
		ProjectRoot: t.TempDir(),
	}

	result, err := e.Heal(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsFlaky)
	assert.False(t, result.Healed)
}

func TestHealUnknownErrorNotHealed(t *testing.T) {
	e := NewSelfHealingEngine(newHealTestEngine(&fakeHealClient{}), &fakeHealAdapter{})

	req := build.HealRequest{
		TestCode: "test code",
		RunResult: adapter.RunResult{Cases: []adapter.CaseResult{
			{Name: "test", Passed: false, Message: "Something went wrong"},
		}},
		ProjectRoot: t.TempDir(),
	}

	result, err := e.Heal(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Healed)
}

func TestHealRetriesUntilValidationPasses(t *testing.T) {
	client := &fakeHealClient{responses: []llm.Response{
		{Text: "still broken"},
		{Text: "fixed code"},
	}}
	ad := &validateSequenceAdapter{validSequence: []bool{false, true}}
	e := NewSelfHealingEngine(newHealTestEngine(client), ad)
	e.MaxHealingAttempts = 2

	req := build.HealRequest{
		TestCode: "test code",
		RunResult: adapter.RunResult{Cases: []adapter.CaseResult{
			{Name: "test", Passed: false, Message: "locator('#x') not found"},
		}},
		ProjectRoot: t.TempDir(),
	}

	result, err := e.Heal(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.Healed)
	assert.Equal(t, "fixed code", result.HealedCode)
}

type validateSequenceAdapter struct {
	fakeHealAdapter
	validSequence []bool
	validateCalls int
}

func (a *validateSequenceAdapter) Validate(code string) adapter.ValidationResult {
	idx := a.validateCalls
	a.validateCalls++
	if idx < len(a.validSequence) {
		return adapter.ValidationResult{Valid: a.validSequence[idx]}
	}
	return adapter.ValidationResult{Valid: true}
}
