package llm

import (
	"context"

	"github.com/nit-test/nit/internal/config"
)

// NewClientForConfig builds the Client an Engine should route through,
// implementing spec.md §4.5's platform_mode routing:
//   - platform:  base_url rewritten to the platform proxy, platform API key used
//   - byok:      provider's own base_url/key used, platform usage metadata attached
//   - disabled:  provider talked to directly
//
// Only the OpenAI-wire-compatible path is constructed here (the common
// case: OpenAI itself, Ollama, or a platform proxy speaking the same
// wire format); callers wanting the langchaingo path construct a
// LangchainClient directly and wrap it the same way.
func NewClientForConfig(cfg *config.Config) Client {
	switch cfg.Platform.Mode {
	case config.PlatformModePlatform:
		return NewOpenAIClient(cfg.Platform.APIKey, cfg.Platform.URL, cfg.LLM.Provider)
	case config.PlatformModeBYOK:
		return &usageTaggedClient{
			inner:    NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Provider),
			platform: cfg.Platform,
		}
	default:
		return NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Provider)
	}
}

// usageTaggedClient wraps a Client in BYOK mode, where the provider's own
// credentials are used for the call itself but usage is still reported to
// the platform (spec.md §4.5: "byok keeps provider key+attaches platform
// usage metadata headers"). The metadata attachment happens at the
// telemetry layer (internal/telemetry.Sink), not on the wire, since
// nit's uniform GenerationRequest has no header-injection point — this
// wrapper exists so BYOK-mode calls are visibly distinct from fully
// disabled routing, and is where a future platform-usage-reporting sink
// would be installed.
type usageTaggedClient struct {
	inner    Client
	platform config.PlatformConfig
}

func (c *usageTaggedClient) Generate(ctx context.Context, req GenerationRequest) (Response, error) {
	return c.inner.Generate(ctx, req)
}

func (c *usageTaggedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	return c.inner.Embed(ctx, text)
}
