// Package pipeline orchestrates a full analysis run: input resolution,
// structural extraction, per-document analysis, and cross-document
// aggregation. Documents move through the phases independently, so one
// broken input costs that document and nothing else; only a run that
// can produce no documents at all fails outright.
package pipeline

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/aggregate"
	"github.com/quillsoft/paperscope/internal/analysis"
	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/cost"
	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/fetcher"
	"github.com/quillsoft/paperscope/internal/model"
	"github.com/quillsoft/paperscope/internal/structure"
)

// Analyzer produces the generated analysis for one document. The
// returned analysis is never nil; failed calls surface as empty
// findings inside it.
type Analyzer interface {
	Analyze(ctx context.Context, doc *model.Document) *model.DocumentAnalysis
}

// Selector ranks a document's resources for the report and reports the
// tokens the call consumed.
type Selector interface {
	Select(ctx context.Context, doc *model.Document) (model.ResourceSelection, model.TokenUsage)
}

// Aggregator builds the cross-document artifact.
type Aggregator interface {
	Aggregate(ctx context.Context, analyses []*model.DocumentAnalysis, mode model.AggregateMode, directive string) (*model.AggregateResult, error)
}

var (
	_ Analyzer   = (*analysis.Extractor)(nil)
	_ Selector   = (*analysis.Selector)(nil)
	_ Aggregator = (*aggregate.Aggregator)(nil)
)

// Pipeline wires the run phases together. One Pipeline serves one
// configuration; Run may be called repeatedly.
type Pipeline struct {
	cfg        *config.Config
	open       docbackend.OpenFunc
	extractor  *structure.Extractor
	resolver   *structure.Resolver
	analyzer   Analyzer
	selector   Selector
	aggregator Aggregator
	fetch      *fetcher.Client
	costCalc   *cost.Calculator
	workers    int
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, open docbackend.OpenFunc, analyzer Analyzer, selector Selector, aggregator Aggregator) (*Pipeline, error) {
	patterns := structure.DefaultPatterns()
	if cfg.Extract.PatternsFile != "" {
		loaded, err := structure.LoadPatterns(cfg.Extract.PatternsFile)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load section patterns")
		}
		patterns = loaded
	}

	workers := cfg.Pipeline.MaxWorkers
	if workers <= 0 {
		workers = 4
	}

	return &Pipeline{
		cfg:        cfg,
		open:       open,
		extractor:  structure.NewExtractor(patterns),
		resolver:   structure.NewResolver(cfg.Extract, patterns),
		analyzer:   analyzer,
		selector:   selector,
		aggregator: aggregator,
		fetch:      fetcher.New(cfg.Fetch),
		costCalc:   cost.NewCalculator(cost.FromConfig(cfg.Pricing)),
		workers:    workers,
	}, nil
}

// Run executes the full pipeline over the inputs and returns the run
// result for rendering. The error is non-nil only when the run as a
// whole is impossible; per-document trouble lands in result.Failed and
// a failed aggregation in its phase record.
func (p *Pipeline) Run(ctx context.Context, inputs []string, mode model.AggregateMode, directive string) (*model.RunResult, error) {
	if len(inputs) == 0 {
		return nil, eris.New("pipeline: no inputs")
	}
	if _, ok := model.ParseAggregateMode(string(mode)); !ok {
		return nil, eris.Errorf("pipeline: unknown mode %q", mode)
	}

	start := time.Now()
	result := &model.RunResult{
		RunID: uuid.New().String(),
		Mode:  mode,
	}
	defer func() {
		result.Duration = time.Since(start).Milliseconds()
	}()

	log := zap.L().With(zap.String("run_id", result.RunID), zap.String("mode", string(mode)))
	log.Info("pipeline: starting run", zap.Int("inputs", len(inputs)))

	// Phase tracking helper: times the phase, records its outcome, and
	// keeps going. Phases run sequentially; parallelism lives inside.
	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) *model.PhaseResult {
		phaseStart := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(phaseStart).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		switch {
		case fnErr != nil:
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		case phaseResult.Status == model.PhaseStatusSkipped:
			log.Info("pipeline: phase skipped", zap.String("phase", name))
		default:
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		result.Phases = append(result.Phases, *phaseResult)
		return phaseResult
	}

	// ===== Phase 1: Resolve inputs =====
	var paths []string
	var workDir string
	trackPhase("1_resolve", func() (*model.PhaseResult, error) {
		resolved := ResolvePhase(ctx, inputs, p.fetch)
		paths = resolved.Paths
		workDir = resolved.WorkDir
		result.Failed = append(result.Failed, resolved.Failures...)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"inputs":    len(inputs),
				"documents": len(paths),
				"failed":    len(resolved.Failures),
			},
		}, nil
	})
	if workDir != "" {
		// Rendered images live in the documents, so downloads are not
		// needed once the run ends.
		defer os.RemoveAll(workDir) //nolint:errcheck
	}
	if len(paths) == 0 {
		return result, eris.New("pipeline: no readable documents among the inputs")
	}

	// ===== Phase 2: Extract =====
	var docs []*model.Document
	trackPhase("2_extract", func() (*model.PhaseResult, error) {
		extracted, failures := ExtractPhase(ctx, paths, p.open, p.extractor, p.resolver, p.workers)
		docs = extracted
		result.Failed = append(result.Failed, failures...)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"documents": len(docs),
				"failed":    len(failures),
			},
		}, nil
	})
	if len(docs) == 0 {
		return result, eris.New("pipeline: no documents survived extraction")
	}

	// ===== Phase 3: Analyze =====
	trackPhase("3_analyze", func() (*model.PhaseResult, error) {
		analyses := AnalyzePhase(ctx, docs, p.analyzer, p.selector, p.workers)
		result.Analyses = analyses

		var usage model.TokenUsage
		for _, an := range analyses {
			usage.Add(an.Usage)
		}
		result.Usage.Add(usage)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"documents":     len(analyses),
				"input_tokens":  usage.InputTokens,
				"output_tokens": usage.OutputTokens,
			},
		}, nil
	})

	// ===== Phase 4: Aggregate =====
	if mode == model.ModeSingle {
		trackPhase("4_aggregate", func() (*model.PhaseResult, error) {
			return &model.PhaseResult{
				Status:   model.PhaseStatusSkipped,
				Metadata: map[string]any{"reason": "single mode"},
			}, nil
		})
	} else {
		trackPhase("4_aggregate", func() (*model.PhaseResult, error) {
			agg, err := p.aggregator.Aggregate(ctx, result.Analyses, mode, directive)
			if err != nil {
				return nil, err
			}
			result.Aggregate = agg
			result.Usage.Add(agg.Usage)
			return &model.PhaseResult{
				Metadata: map[string]any{
					"input_tokens":  agg.Usage.InputTokens,
					"output_tokens": agg.Usage.OutputTokens,
				},
			}, nil
		})
	}

	// ===== Finalize =====
	provider, modelID := p.activeModel()
	result.Usage.Cost = p.costCalc.Completion(provider, modelID,
		result.Usage.InputTokens, result.Usage.OutputTokens,
		result.Usage.CacheCreationTokens, result.Usage.CacheReadTokens)

	log.Info("pipeline: run complete",
		zap.Int("documents", len(result.Analyses)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("input_tokens", result.Usage.InputTokens),
		zap.Int("output_tokens", result.Usage.OutputTokens),
		zap.Float64("cost", result.Usage.Cost),
	)

	return result, nil
}

// activeModel names the provider and model the gateway was built for,
// for pricing. An unset provider falls back to openai, matching
// gateway.NewProvider.
func (p *Pipeline) activeModel() (provider string, modelID string) {
	if strings.EqualFold(p.cfg.Generation.Provider, "anthropic") {
		return "anthropic", p.cfg.Anthropic.Model
	}
	return "openai", p.cfg.OpenAI.Model
}
