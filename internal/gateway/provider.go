package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/quillsoft/paperscope/internal/config"
)

// Provider runs one completion against a vendor API. Adapters translate
// Request into the vendor's wire types and surface failures as
// *ProviderError so the gateway can classify them.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}

// NewProvider creates a Provider based on config.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Generation.Provider {
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("gateway: anthropic provider requires anthropic.key")
		}
		return newAnthropicProvider(cfg.Anthropic), nil
	case "openai", "":
		if cfg.OpenAI.Key == "" && cfg.OpenAI.BaseURL == config.DefaultOpenAIBaseURL {
			return nil, eris.New("gateway: openai provider requires openai.key")
		}
		return newOpenAIProvider(cfg.OpenAI), nil
	default:
		return nil, eris.Errorf("gateway: unknown provider %q", cfg.Generation.Provider)
	}
}
