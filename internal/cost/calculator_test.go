package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillsoft/paperscope/internal/config"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"sonnet": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		OpenAI: map[string]ModelRate{
			"gpt-4o-mini": {
				Input: 0.15, Output: 0.60,
				CacheWriteMul: 1.0, CacheReadMul: 0.5,
			},
		},
	}
}

func TestCompletion(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name       string
		provider   string
		model      string
		input      int
		output     int
		cacheWrite int
		cacheRead  int
		want       float64
	}{
		{
			name:     "haiku simple",
			provider: "anthropic", model: "haiku",
			input: 1000000, output: 100000,
			want: 0.80 + 0.40, // 0.80 input + 0.40 output
		},
		{
			name:     "haiku with cache",
			provider: "anthropic", model: "haiku",
			input: 500000, output: 50000,
			cacheWrite: 200000, cacheRead: 300000,
			// in: 0.5M/1M * 0.80 = 0.40
			// out: 0.05M/1M * 4.00 = 0.20
			// cw: 0.2M/1M * 0.80 * 1.25 = 0.20
			// cr: 0.3M/1M * 0.80 * 0.1 = 0.024
			want: 0.40 + 0.20 + 0.20 + 0.024,
		},
		{
			name:     "sonnet",
			provider: "anthropic", model: "sonnet",
			input: 1000000, output: 100000,
			want: 3.00 + 1.50,
		},
		{
			name:     "openai mini with cached reads",
			provider: "openai", model: "gpt-4o-mini",
			input: 1000000, output: 100000, cacheRead: 1000000,
			// 0.15 + 0.06 + 0.15*0.5
			want: 0.15 + 0.06 + 0.075,
		},
		{
			name:     "provider casing tolerated",
			provider: "Anthropic", model: "haiku",
			input: 1000000,
			want:  0.80,
		},
		{
			name:     "unknown model returns 0",
			provider: "anthropic", model: "unknown",
			input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name:     "unknown provider returns 0",
			provider: "mistral", model: "haiku",
			input: 1000000,
			want:  0,
		},
		{
			name:     "zero tokens returns 0",
			provider: "anthropic", model: "haiku",
			want: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Completion(tt.provider, tt.model, tt.input, tt.output, tt.cacheWrite, tt.cacheRead)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()

	assert.Contains(t, rates.Anthropic, "claude-haiku-4-5-20251001")
	assert.Contains(t, rates.Anthropic, "claude-sonnet-4-5-20250929")
	assert.Contains(t, rates.Anthropic, "claude-opus-4-6")
	assert.Contains(t, rates.OpenAI, "gpt-4o-mini")
	assert.InDelta(t, 3.00, rates.Anthropic["claude-sonnet-4-5-20250929"].Input, 0.001)
	assert.InDelta(t, 0.60, rates.OpenAI["gpt-4o-mini"].Output, 0.001)
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	rates := FromConfig(config.PricingConfig{
		Anthropic: map[string]config.ModelPricing{
			// Override an existing model, leaving the multipliers to
			// their defaults.
			"claude-sonnet-4-5-20250929": {Input: 2.50, Output: 12.00},
		},
		OpenAI: map[string]config.ModelPricing{
			"local-llm": {Input: 0.01, Output: 0.02, CacheReadMul: 0.25},
		},
	})

	// Defaults survive for untouched models.
	assert.InDelta(t, 0.80, rates.Anthropic["claude-haiku-4-5-20251001"].Input, 0.001)

	over := rates.Anthropic["claude-sonnet-4-5-20250929"]
	assert.InDelta(t, 2.50, over.Input, 0.001)
	assert.InDelta(t, 12.00, over.Output, 0.001)
	assert.InDelta(t, 1.25, over.CacheWriteMul, 0.001)
	assert.InDelta(t, 0.1, over.CacheReadMul, 0.001)

	added := rates.OpenAI["local-llm"]
	assert.InDelta(t, 0.01, added.Input, 0.001)
	assert.InDelta(t, 0.25, added.CacheReadMul, 0.001)
	assert.InDelta(t, 1.0, added.CacheWriteMul, 0.001)
}
