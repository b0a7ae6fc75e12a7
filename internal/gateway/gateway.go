// Package gateway funnels every model call through one place: a
// provider adapter, client-side pacing, a per-call timeout, and a
// bounded retry budget that also covers replies failing their declared
// shape. Callers get either a Result or a classified GenerationError.
package gateway

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
	"github.com/quillsoft/paperscope/internal/resilience"
)

// Request describes one completion call. Zero MaxTokens and Temperature
// fall back to the configured defaults.
type Request struct {
	System      string
	Prompt      string
	Shape       *Shape // nil means the caller wants raw text
	MaxTokens   int
	Temperature float64
}

// Result is a completed generation.
type Result struct {
	Raw        string
	Structured map[string]any // populated when the request carried a Shape
	Usage      model.TokenUsage
}

// Gateway wraps a Provider with retry, pacing, and timeout policy. It
// keeps no per-call state and is safe for concurrent use.
type Gateway struct {
	provider Provider
	retry    resilience.RetryConfig
	limiter  *rate.Limiter
	timeout  time.Duration

	maxTokens   int
	temperature float64
}

// New creates a Gateway over the given provider using the configured
// retry budget, pacing, and per-call timeout.
func New(provider Provider, cfg config.GenerationConfig) *Gateway {
	g := &Gateway{
		provider:    provider,
		retry:       resilience.FromRetryConfig(cfg.MaxRetries, cfg.RetryDelaySecs),
		timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if g.timeout <= 0 {
		g.timeout = 120 * time.Second
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return g
}

// Complete runs the request against the provider. Transient failures
// (timeout, rate limit, transient 5xx) and malformed structured replies
// are retried up to the configured attempt budget; auth failures are
// not. On exhaustion the returned error is a *GenerationError.
func (g *Gateway) Complete(ctx context.Context, req Request) (*Result, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = g.maxTokens
	}
	if req.Temperature <= 0 {
		req.Temperature = g.temperature
	}

	// A bad schema fails identically on every attempt; reject it before
	// spending any calls.
	if req.Shape != nil {
		if _, err := req.Shape.compile(); err != nil {
			return nil, err
		}
	}

	cfg := g.retry
	cfg.ShouldRetry = retryable
	cfg.OnRetry = resilience.RetryLogger(g.provider.Name(), "complete")

	attempts := 0
	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Result, error) {
		attempts++

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		res, err := g.provider.Generate(callCtx, req)
		if err != nil {
			return nil, err
		}

		if req.Shape != nil {
			structured, derr := req.Shape.Decode(res.Raw)
			if derr != nil {
				return nil, &malformedError{raw: res.Raw, err: derr}
			}
			res.Structured = structured
		}
		return res, nil
	})
	if err != nil {
		// A cancelled run is not a provider failure; report it as-is.
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &GenerationError{
			Kind:     classifyKind(err),
			Attempts: attempts,
			LastRaw:  lastRaw(err),
			Err:      err,
		}
	}
	return res, nil
}
