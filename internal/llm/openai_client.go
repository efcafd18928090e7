package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient routes GenerationRequests through any OpenAI-compatible
// HTTP API: OpenAI itself, or Ollama's OpenAI-compatible endpoint when
// llm.mode is "ollama" (base_url pointed at the local server). Grounded
// on services/llm/ollama_llm.go's use of an OpenAI-shaped wire format and
// on go-openai, already present in the teacher's go.mod.
type OpenAIClient struct {
	api      *openai.Client
	provider string
}

// NewOpenAIClient builds a client. baseURL may be empty to use OpenAI's
// default endpoint, or set (e.g. http://localhost:11434/v1) to target a
// platform proxy or a local Ollama server.
func NewOpenAIClient(apiKey, baseURL, provider string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg), provider: provider}
}

func (c *OpenAIClient) Generate(ctx context.Context, req GenerationRequest) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, c.classifyError(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, &Error{Kind: KindInvalidRequest, Provider: c.provider, Model: req.Model,
			Message: "provider returned no choices"}
	}

	return Response{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.SmallEmbedding3,
	})
	if err != nil {
		return nil, c.classifyError("", err)
	}
	if len(resp.Data) == 0 {
		return nil, &Error{Kind: KindInvalidRequest, Provider: c.provider, Message: "no embedding returned"}
	}
	out := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		out[i] = float64(v)
	}
	return out, nil
}

// classifyError maps go-openai's error shapes onto nit's LLM error
// taxonomy (spec.md §4.5).
func (c *OpenAIClient) classifyError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := KindUnknown
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuth
		case http.StatusTooManyRequests:
			kind = KindRateLimit
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			kind = KindInvalidRequest
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			kind = KindConnection
		}
		return &Error{Kind: kind, Provider: c.provider, Model: model, Message: apiErr.Message, Cause: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindConnection, Provider: c.provider, Model: model, Message: reqErr.Error(), Cause: err}
	}

	return &Error{Kind: KindConnection, Provider: c.provider, Model: model, Message: err.Error(), Cause: err}
}
