// Package llm implements nit's LLMEngine: a uniform Generate contract over
// pluggable provider clients, with a shared token-bucket rate limiter,
// exponential-backoff retry, and a taxonomy of provider errors.
package llm

import (
	"context"
	"fmt"
)

// Role names a message's speaker in a GenerationRequest.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a GenerationRequest's conversation.
type Message struct {
	Role    Role
	Content string
}

// Metadata tags a request with the caller's identity for usage telemetry
// (spec.md §4.5: "{model,prompt_tokens,completion_tokens,template_name?,
// builder_name?,source_file?}").
type Metadata struct {
	TemplateName string
	BuilderName  string
	SourceFile   string
}

// GenerationRequest is LLMEngine's uniform input, independent of provider.
type GenerationRequest struct {
	Messages    []Message
	Model       string
	Temperature float64
	MaxTokens   int
	Metadata    Metadata
}

// Response is LLMEngine's uniform output.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Error is the common shape every LLMEngine error satisfies, carrying the
// provider's message and the model name involved (spec.md §4.5).
type Error struct {
	Kind     string
	Provider string
	Model    string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("nit/llm: %s (provider=%s model=%s): %s", e.Kind, e.Provider, e.Model, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Error kind constants forming the taxonomy spec.md §4.5 names.
const (
	KindAuth           = "auth_error"
	KindRateLimit      = "rate_limit_error"
	KindConnection     = "connection_error"
	KindInvalidRequest = "invalid_request_error"
	KindTimeout        = "timeout_error"
	KindUnknown        = "error"
)

// IsRetryable reports whether an LLM error of this kind should be retried
// by the engine's backoff loop (spec.md §4.5: rate-limit/connection are
// retried; auth/invalid-request are not).
func IsRetryable(err error) bool {
	llmErr, ok := err.(*Error)
	if !ok {
		return false
	}
	switch llmErr.Kind {
	case KindRateLimit, KindConnection:
		return true
	default:
		return false
	}
}

// Client is the interface every provider implementation satisfies.
type Client interface {
	Generate(ctx context.Context, req GenerationRequest) (Response, error)
	// Embed returns a single embedding vector for text, used by the
	// semantic drift comparator's cosine-similarity check.
	Embed(ctx context.Context, text string) ([]float64, error)
}
