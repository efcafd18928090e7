package llm

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// LangchainClient routes GenerationRequests through any
// github.com/tmc/langchaingo llms.Model implementation — used for
// providers that don't speak OpenAI's wire format (e.g. Anthropic-style
// providers), where go-openai's client can't be pointed at all. This
// keeps langchaingo, already present in the teacher's go.mod but unused
// beyond its presence in the require block, actually exercised.
type LangchainClient struct {
	model    llms.Model
	provider string
}

func NewLangchainClient(model llms.Model, provider string) *LangchainClient {
	return &LangchainClient{model: model, provider: provider}
}

func (c *LangchainClient) Generate(ctx context.Context, req GenerationRequest) (Response, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content = append(content, llms.TextParts(toLangchainRole(m.Role), m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithModel(req.Model),
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return Response{}, &Error{Kind: KindConnection, Provider: c.provider, Model: req.Model, Message: err.Error(), Cause: err}
	}
	if len(resp.Choices) == 0 {
		return Response{}, &Error{Kind: KindInvalidRequest, Provider: c.provider, Model: req.Model, Message: "provider returned no choices"}
	}

	choice := resp.Choices[0]
	promptTokens, completionTokens := 0, 0
	if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
		promptTokens = v
	}
	if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
		completionTokens = v
	}

	return Response{
		Text:             choice.Content,
		Model:            req.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

// Embed is unsupported for a generic langchaingo llms.Model (embeddings
// use a distinct langchaingo interface); callers that need embeddings
// route through OpenAIClient instead.
func (c *LangchainClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, &Error{Kind: KindInvalidRequest, Provider: c.provider, Message: "embeddings not supported by LangchainClient"}
}

func toLangchainRole(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
