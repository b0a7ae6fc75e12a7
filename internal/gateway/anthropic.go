package gateway

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
	"github.com/quillsoft/paperscope/pkg/anthropic"
)

// anthropicProvider adapts pkg/anthropic to the Provider interface.
type anthropicProvider struct {
	client      anthropic.Client
	model       string
	cacheSystem bool
}

func newAnthropicProvider(cfg config.AnthropicConfig) *anthropicProvider {
	return &anthropicProvider{
		// Retries are governed by the gateway, not the SDK.
		client:      anthropic.NewClient(cfg.Key, option.WithMaxRetries(0)),
		model:       cfg.Model,
		cacheSystem: cfg.CacheSystem,
	}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	temp := req.Temperature
	mreq := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}
	if req.System != "" {
		if p.cacheSystem {
			mreq.System = anthropic.BuildCachedSystemBlocks(req.System)
		} else {
			mreq.System = []anthropic.SystemBlock{{Text: req.System}}
		}
	}

	resp, err := p.client.CreateMessage(ctx, mreq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Status: anthropicStatus(err), Err: err}
	}
	resp.Usage.LogCost(p.model, "complete")

	return &Result{
		Raw: resp.Text(),
		Usage: model.TokenUsage{
			InputTokens:         int(resp.Usage.InputTokens),
			OutputTokens:        int(resp.Usage.OutputTokens),
			CacheCreationTokens: int(resp.Usage.CacheCreationInputTokens),
			CacheReadTokens:     int(resp.Usage.CacheReadInputTokens),
		},
	}, nil
}

// anthropicStatus extracts the HTTP status from an SDK error chain.
func anthropicStatus(err error) int {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
