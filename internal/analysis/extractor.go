// Package analysis turns structural documents into per-dimension
// findings, keywords, and summaries through the generation gateway.
// Failures never propagate: a failed call yields an empty finding with
// ConfidenceNone, isolated to its (document, dimension) slot.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
)

const (
	defaultBudget      = 2000
	defaultNumKeywords = 5
	keywordsFullText   = 3000
)

// Extractor runs dimension analysis over immutable documents. It is
// safe for concurrent use across documents.
type Extractor struct {
	gw  *gateway.Gateway
	cfg config.AnalysisConfig
}

func NewExtractor(gw *gateway.Gateway, cfg config.AnalysisConfig) *Extractor {
	if cfg.MaxSectionChars <= 0 {
		cfg.MaxSectionChars = defaultBudget
	}
	if cfg.NumKeywords <= 0 {
		cfg.NumKeywords = defaultNumKeywords
	}
	return &Extractor{gw: gw, cfg: cfg}
}

// ExtractDimension analyzes one dimension of one document. It never
// returns an error: a failed generation yields an empty finding.
func (e *Extractor) ExtractDimension(ctx context.Context, doc *model.Document, dim model.Dimension) model.DimensionFinding {
	f, _ := e.extractDimension(ctx, doc, dim)
	return f
}

func (e *Extractor) extractDimension(ctx context.Context, doc *model.Document, dim model.Dimension) (model.DimensionFinding, model.TokenUsage) {
	spec, ok := dimensionPrompts[dim]
	if !ok {
		return emptyFinding(doc.ID, dim), model.TokenUsage{}
	}

	content := contextFor(doc, dim, e.cfg.MaxSectionChars)
	res, err := e.gw.Complete(ctx, gateway.Request{
		System: extractionSystem,
		Prompt: fmt.Sprintf(spec.template, content),
		Shape:  spec.shape,
	})
	if err != nil {
		zap.L().Warn("dimension extraction failed",
			zap.String("doc", doc.ID),
			zap.String("dimension", string(dim)),
			zap.Error(err))
		return emptyFinding(doc.ID, dim), model.TokenUsage{}
	}

	return model.DimensionFinding{
		DocumentID: doc.ID,
		Dimension:  dim,
		Summary:    flattenPayload(res.Structured, spec.fields),
		Details:    res.Structured,
		Confidence: model.ConfidenceFull,
	}, res.Usage
}

// Analyze produces the full per-document analysis: the four dimensions
// and keyword extraction concurrently, then a summary built on top of
// the findings. Every call is failure-isolated; the analysis always
// comes back usable.
func (e *Extractor) Analyze(ctx context.Context, doc *model.Document) *model.DocumentAnalysis {
	analysis := &model.DocumentAnalysis{
		Document: doc,
		Findings: make(map[model.Dimension]model.DimensionFinding, len(model.AllDimensions())),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, dim := range model.AllDimensions() {
		g.Go(func() error {
			f, usage := e.extractDimension(gctx, doc, dim)
			mu.Lock()
			analysis.Findings[dim] = f
			analysis.Usage.Add(usage)
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		kws, usage := e.keywords(gctx, doc)
		mu.Lock()
		analysis.Keywords = kws
		analysis.Usage.Add(usage)
		mu.Unlock()
		return nil
	})

	// Workers never return errors; the Wait is purely a join.
	_ = g.Wait()

	summary, usage := e.summary(ctx, doc, analysis.Findings)
	analysis.Summary = summary
	analysis.Usage.Add(usage)

	return analysis
}

func (e *Extractor) keywords(ctx context.Context, doc *model.Document) ([]string, model.TokenUsage) {
	res, err := e.gw.Complete(ctx, gateway.Request{
		System: extractionSystem,
		Prompt: fmt.Sprintf(keywordsPrompt,
			e.cfg.NumKeywords,
			doc.Title,
			doc.Abstract,
			Truncate(doc.FullText, keywordsFullText)),
		Shape: keywordsShape,
	})
	if err != nil {
		zap.L().Warn("keyword extraction failed",
			zap.String("doc", doc.ID), zap.Error(err))
		return nil, model.TokenUsage{}
	}
	return stringSlice(res.Structured["keywords"]), res.Usage
}

func (e *Extractor) summary(ctx context.Context, doc *model.Document, findings map[model.Dimension]model.DimensionFinding) (string, model.TokenUsage) {
	language := "English"
	switch strings.ToLower(e.cfg.Language) {
	case "zh", "chinese", "zh-cn", "zh_cn":
		language = "Chinese"
	}

	res, err := e.gw.Complete(ctx, gateway.Request{
		Prompt: fmt.Sprintf(summaryPrompt,
			language,
			doc.Title,
			doc.Abstract,
			detailString(findings[model.DimensionBackground], "motivation"),
			detailString(findings[model.DimensionTechnology], "method_overview"),
			detailList(findings[model.DimensionExperiment], "datasets"),
			detailString(findings[model.DimensionResult], "main_results")),
	})
	if err != nil {
		zap.L().Warn("summary generation failed",
			zap.String("doc", doc.ID), zap.Error(err))
		return "", model.TokenUsage{}
	}
	return strings.TrimSpace(res.Raw), res.Usage
}

func emptyFinding(docID string, dim model.Dimension) model.DimensionFinding {
	return model.DimensionFinding{
		DocumentID: docID,
		Dimension:  dim,
		Confidence: model.ConfidenceNone,
	}
}

// flattenPayload digests a structured reply into one paragraph, in the
// shape's field order.
func flattenPayload(payload map[string]any, fields []string) string {
	var parts []string
	for _, f := range fields {
		if s := stringifyValue(payload[f]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var items []string
		for _, el := range t {
			if s := stringifyValue(el); s != "" {
				items = append(items, s)
			}
		}
		return strings.Join(items, ", ")
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range list {
		if s, ok := el.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// detailString reads one string field out of a finding's payload.
func detailString(f model.DimensionFinding, key string) string {
	if f.Details == nil {
		return ""
	}
	s, _ := f.Details[key].(string)
	return s
}

// detailList reads a list field out of a finding's payload, joined for
// prompt embedding.
func detailList(f model.DimensionFinding, key string) string {
	if f.Details == nil {
		return ""
	}
	return strings.Join(stringSlice(f.Details[key]), ", ")
}
