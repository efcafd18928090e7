package llm

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nit-test/nit/internal/config"
	"github.com/nit-test/nit/internal/telemetry"
)

// Engine is nit's LLMEngine: a uniform Generate/CountTokens surface over
// one routed provider client, a shared token bucket, and retry/backoff.
//
// The token bucket capacity equals requests_per_minute, refilling at
// capacity/60 per second; golang.org/x/time/rate.Limiter gives this and
// FCFS queueing for free via Wait(ctx), matching spec.md §4.5 exactly.
type Engine struct {
	client   Client
	limiter  *rate.Limiter
	retry    RetryConfig
	model    string
	provider string
	tokens   *Tokenizer
}

// New builds an Engine routed per cfg.LLM and cfg.Platform (spec.md
// §4.5's platform_mode routing: platform rewrites base_url and uses the
// platform key; byok keeps the provider key and attaches platform usage
// metadata; disabled talks to the provider directly).
func New(cfg *config.Config, client Client) *Engine {
	capacity := cfg.LLM.RequestsPerMin
	if capacity <= 0 {
		capacity = 60
	}
	limiter := rate.NewLimiter(rate.Limit(float64(capacity)/60.0), capacity)

	return &Engine{
		client:   client,
		limiter:  limiter,
		retry:    DefaultRetryConfig(cfg.LLM.MaxRetries),
		model:    cfg.LLM.Model,
		provider: cfg.LLM.Provider,
		tokens:   NewTokenizer(cfg.LLM.Model),
	}
}

// Generate issues one request through the rate limiter and retry loop,
// recording usage telemetry on success. Blocking on the limiter and on
// the underlying HTTP call are this engine's suspension points; ctx
// cancellation is honored at both (spec.md §5).
func (e *Engine) Generate(ctx context.Context, req GenerationRequest) (Response, error) {
	if req.Model == "" {
		req.Model = e.model
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("nit/llm: rate limiter wait: %w", err)
	}

	resp, err := withRetry(ctx, e.retry, func() (Response, error) {
		return e.client.Generate(ctx, req)
	})
	if err != nil {
		return Response{}, err
	}

	telemetry.Record(telemetry.UsageEvent{
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		TemplateName:     req.Metadata.TemplateName,
		BuilderName:      req.Metadata.BuilderName,
		SourceFile:       req.Metadata.SourceFile,
	})
	return resp, nil
}

// Embed proxies to the routed client for the semantic drift comparator.
func (e *Engine) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.client.Embed(ctx, text)
}

// CountTokens estimates the token count of text for the given model,
// falling back to a 4-chars-per-token heuristic when the tokenizer
// doesn't recognize the model (spec.md §4.4/§4.5).
func (e *Engine) CountTokens(text string, model string) int {
	if model == "" {
		model = e.model
	}
	return e.tokens.Count(text, model)
}

var (
	installMu sync.Mutex
)

// Install and Reset are process-wide usage-telemetry entry points kept
// here for discoverability; they simply delegate to internal/telemetry,
// which owns the actual singleton (spec.md §9: "usage-telemetry sink...
// process-wide singleton... explicit Install/Reset").
func Install(sink telemetry.Sink) {
	installMu.Lock()
	defer installMu.Unlock()
	telemetry.Install(sink)
}

func Reset() {
	installMu.Lock()
	defer installMu.Unlock()
	telemetry.Reset()
}
