package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nit-test/nit/internal/config"
)

// fakeClient lets tests script a sequence of responses/errors without any
// network access.
type fakeClient struct {
	calls     int
	responses []Response
	errs      []error
}

func (f *fakeClient) Generate(ctx context.Context, req GenerationRequest) (Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Response{}, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return Response{Text: "ok", Model: req.Model}, nil
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LLM.Model = "gpt-4"
	cfg.LLM.Provider = "openai"
	cfg.LLM.RequestsPerMin = 600 // fast for tests
	cfg.LLM.MaxRetries = 2
	return cfg
}

func TestEngineGenerateSuccess(t *testing.T) {
	client := &fakeClient{}
	engine := New(testConfig(), client)

	resp, err := engine.Generate(context.Background(), GenerationRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 1, client.calls)
}

func TestEngineRetriesRateLimitThenSucceeds(t *testing.T) {
	client := &fakeClient{
		errs: []error{
			&Error{Kind: KindRateLimit, Provider: "openai", Message: "slow down"},
		},
		responses: []Response{{}, {Text: "recovered"}},
	}
	cfg := testConfig()
	engine := New(cfg, client)
	engine.retry.BaseDelay = time.Millisecond
	engine.retry.MaxDelay = 5 * time.Millisecond

	resp, err := engine.Generate(context.Background(), GenerationRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, 2, client.calls)
}

func TestEngineDoesNotRetryAuthError(t *testing.T) {
	client := &fakeClient{
		errs: []error{&Error{Kind: KindAuth, Provider: "openai", Message: "bad key"}},
	}
	engine := New(testConfig(), client)

	_, err := engine.Generate(context.Background(), GenerationRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestCountTokensFallsBackForUnknownModel(t *testing.T) {
	tok := NewTokenizer("some-local-model")
	n := tok.Count("a reasonably long sentence of text", "some-local-model")
	assert.Greater(t, n, 0)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&Error{Kind: KindRateLimit}))
	assert.True(t, IsRetryable(&Error{Kind: KindConnection}))
	assert.False(t, IsRetryable(&Error{Kind: KindAuth}))
	assert.False(t, IsRetryable(&Error{Kind: KindInvalidRequest}))
	assert.False(t, IsRetryable(context.Canceled))
}
