// Package cost prices generation-service token usage so runs can report
// what they spent.
package cost

import (
	"strings"

	"github.com/quillsoft/paperscope/internal/config"
)

// Rates holds per-provider pricing tables.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    map[string]ModelRate `yaml:"openai" mapstructure:"openai"`
}

// ModelRate holds per-model token pricing (USD per million tokens).
// Cache multipliers scale the input rate for prompt-cache writes and
// reads.
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Completion computes the cost of one completion for the given provider
// and model. Unknown providers and models price at zero rather than
// failing the run.
func (c *Calculator) Completion(provider, model string, input, output, cacheWrite, cacheRead int) float64 {
	var table map[string]ModelRate
	switch strings.ToLower(provider) {
	case "anthropic":
		table = c.rates.Anthropic
	case "openai":
		table = c.rates.OpenAI
	}
	rate, ok := table[model]
	if !ok {
		return 0
	}

	cost := (float64(input) / 1e6) * rate.Input
	cost += (float64(output) / 1e6) * rate.Output
	cost += (float64(cacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	cost += (float64(cacheRead) / 1e6) * rate.Input * rate.CacheReadMul
	return cost
}

// FromConfig overlays configured rates onto the defaults, so a config
// file only needs to list the models it changes or adds.
func FromConfig(cfg config.PricingConfig) Rates {
	rates := DefaultRates()
	for name, mp := range cfg.Anthropic {
		rates.Anthropic[name] = modelRate(mp, 1.25, 0.1)
	}
	for name, mp := range cfg.OpenAI {
		rates.OpenAI[name] = modelRate(mp, 1.0, 0.5)
	}
	return rates
}

func modelRate(mp config.ModelPricing, defaultWriteMul, defaultReadMul float64) ModelRate {
	r := ModelRate{
		Input:         mp.Input,
		Output:        mp.Output,
		CacheWriteMul: mp.CacheWriteMul,
		CacheReadMul:  mp.CacheReadMul,
	}
	if r.CacheWriteMul == 0 {
		r.CacheWriteMul = defaultWriteMul
	}
	if r.CacheReadMul == 0 {
		r.CacheReadMul = defaultReadMul
	}
	return r
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-opus-4-6": {
				Input: 15.00, Output: 75.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
		OpenAI: map[string]ModelRate{
			"gpt-4o-mini": {
				Input: 0.15, Output: 0.60,
				CacheWriteMul: 1.0, CacheReadMul: 0.5,
			},
			"gpt-4o": {
				Input: 2.50, Output: 10.00,
				CacheWriteMul: 1.0, CacheReadMul: 0.5,
			},
			"gpt-4.1-mini": {
				Input: 0.40, Output: 1.60,
				CacheWriteMul: 1.0, CacheReadMul: 0.5,
			},
		},
	}
}
