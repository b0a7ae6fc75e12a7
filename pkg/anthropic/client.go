// Package anthropic wraps the official Anthropic SDK behind a small
// client interface with prompt caching support and per-model cost
// accounting.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client is the subset of the Anthropic API used by the analysis pipeline.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest describes a single message completion request.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      []SystemBlock
	Messages    []Message
	Temperature *float64
}

// SystemBlock is one block of the system prompt, optionally cache-marked.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl marks a system block for prompt caching. TTL is "5m" or "1h";
// empty means the API default.
type CacheControl struct {
	TTL string
}

// Message is a single conversation turn.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is the parsed response to a message request.
type MessageResponse struct {
	ID           string
	Model        string
	Content      []ContentBlock
	StopReason   string
	StopSequence string
	Usage        TokenUsage
}

// Text concatenates the text content blocks of the response.
func (r *MessageResponse) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// ContentBlock is one block of response content.
type ContentBlock struct {
	Type string
	Text string
}

// TokenUsage reports token consumption for a request.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// modelPricing maps model IDs to USD prices per million tokens.
// Cache writes cost 1.25x input, cache reads 0.1x input.
var modelPricing = map[string]struct {
	input  float64
	output float64
}{
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
	"claude-opus-4-6":            {15.00, 75.00},
}

// EstimateCost returns the estimated USD cost of this usage for the given
// model. Unknown models return 0.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	const mtok = 1_000_000
	cost := float64(u.InputTokens) / mtok * p.input
	cost += float64(u.OutputTokens) / mtok * p.output
	cost += float64(u.CacheCreationInputTokens) / mtok * p.input * 1.25
	cost += float64(u.CacheReadInputTokens) / mtok * p.input * 0.10
	return cost
}

// LogCost logs the usage and estimated cost for one pipeline stage.
func (u TokenUsage) LogCost(model, stage string) {
	zap.L().Info("token usage",
		zap.String("stage", stage),
		zap.String("model", model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_creation_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

// sdkClient implements Client on top of the official SDK.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a Client backed by the official Anthropic SDK. Extra
// options are passed through, e.g. option.WithMaxRetries(0) for callers
// that manage retries themselves.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &sdkClient{
		client: sdk.NewClient(opts...),
	}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if len(req.System) > 0 {
		params.System = toSDKSystemBlocks(req.System)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromSDKMessage(msg), nil
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out = append(out, sdk.NewAssistantMessage(block))
		default:
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func toSDKSystemBlocks(blocks []SystemBlock) []sdk.TextBlockParam {
	out := make([]sdk.TextBlockParam, 0, len(blocks))
	for _, b := range blocks {
		p := sdk.TextBlockParam{Text: b.Text}
		if b.CacheControl != nil {
			cc := sdk.NewCacheControlEphemeralParam()
			if b.CacheControl.TTL != "" {
				cc.TTL = sdk.CacheControlEphemeralTTL(b.CacheControl.TTL)
			}
			p.CacheControl = cc
		}
		out = append(out, p)
	}
	return out
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:           msg.ID,
		Model:        string(msg.Model),
		StopReason:   string(msg.StopReason),
		StopSequence: msg.StopSequence,
		Usage: TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		},
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content = append(resp.Content, ContentBlock{Type: "text", Text: block.Text})
		}
	}
	return resp
}
