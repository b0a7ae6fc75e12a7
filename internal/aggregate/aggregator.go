// Package aggregate builds cross-document artifacts over a set of
// analyzed documents: a comparison matrix, a trend analysis, or a
// custom narrative. Every artifact costs exactly one generation call;
// the per-document findings are projected into one combined context
// instead of being re-sent per axis.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
)

// Aggregator turns document analyses into one cross-document artifact.
// It reads the analyses but never mutates them.
type Aggregator struct {
	gw  *gateway.Gateway
	cfg config.AggregateConfig
}

func NewAggregator(gw *gateway.Gateway, cfg config.AggregateConfig) *Aggregator {
	if len(cfg.Axes) == 0 {
		cfg.Axes = []string{"architecture", "training_method", "performance"}
	}
	if cfg.MaxDocChars <= 0 {
		cfg.MaxDocChars = defaultDocChars
	}
	if cfg.MaxComparisonChars <= 0 {
		cfg.MaxComparisonChars = defaultComparisonChars
	}
	if cfg.MaxTrendChars <= 0 {
		cfg.MaxTrendChars = defaultTrendChars
	}
	return &Aggregator{gw: gw, cfg: cfg}
}

// Aggregate produces the artifact for the given mode. Mode "single"
// produces no cross-document artifact and is rejected here; callers
// skip aggregation for it. A non-empty directive replaces the fixed
// comparison and trend prompts outright: the run becomes a custom
// synthesis no matter which mode was asked for. A generation failure
// is returned to the caller, which still holds the per-document
// analyses.
func (a *Aggregator) Aggregate(ctx context.Context, analyses []*model.DocumentAnalysis, mode model.AggregateMode, directive string) (*model.AggregateResult, error) {
	if len(analyses) == 0 {
		return nil, eris.New("aggregate: no documents to aggregate")
	}
	if strings.TrimSpace(directive) != "" {
		return a.custom(ctx, analyses, directive)
	}
	switch mode {
	case model.ModeComparison:
		return a.comparison(ctx, analyses)
	case model.ModeTrend:
		return a.trend(ctx, analyses)
	case model.ModeCustom:
		return a.custom(ctx, analyses, directive)
	}
	return nil, eris.Errorf("aggregate: mode %q produces no artifact", mode)
}

func (a *Aggregator) comparison(ctx context.Context, analyses []*model.DocumentAnalysis) (*model.AggregateResult, error) {
	res, err := a.gw.Complete(ctx, gateway.Request{
		System: aggregateSystem,
		Prompt: fmt.Sprintf(comparisonPrompt,
			len(analyses),
			strings.Join(a.cfg.Axes, ", "),
			a.digests(analyses, a.cfg.MaxComparisonChars)),
		Shape: comparisonShape,
	})
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: comparison call")
	}

	return &model.AggregateResult{
		Mode:           model.ModeComparison,
		OverallSummary: payloadString(res.Structured, "overall_summary"),
		Matrix:         a.matrixRows(res.Structured["matrix"], analyses),
		Timeline:       timelineEntries(res.Structured["timeline"], analyses),
		CommonThemes:   stringSlice(res.Structured["common_themes"]),
		KeyDifferences: stringSlice(res.Structured["key_differences"]),
		Usage:          res.Usage,
	}, nil
}

func (a *Aggregator) trend(ctx context.Context, analyses []*model.DocumentAnalysis) (*model.AggregateResult, error) {
	res, err := a.gw.Complete(ctx, gateway.Request{
		System: aggregateSystem,
		Prompt: fmt.Sprintf(trendPrompt,
			len(analyses),
			a.digests(analyses, a.cfg.MaxTrendChars)),
		Shape: trendShape,
	})
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: trend call")
	}

	return &model.AggregateResult{
		Mode:           model.ModeTrend,
		OverallSummary: payloadString(res.Structured, "overall_summary"),
		Timeline:       timelineEntries(res.Structured["timeline"], analyses),
		Trends:         trendList(res.Structured["trends"]),
		CommonThemes:   stringSlice(res.Structured["common_themes"]),
		KeyDifferences: stringSlice(res.Structured["key_differences"]),
		Usage:          res.Usage,
	}, nil
}

func (a *Aggregator) custom(ctx context.Context, analyses []*model.DocumentAnalysis, directive string) (*model.AggregateResult, error) {
	if strings.TrimSpace(directive) == "" {
		return nil, eris.New("aggregate: custom mode requires a directive")
	}
	res, err := a.gw.Complete(ctx, gateway.Request{
		Prompt: fmt.Sprintf(customPrompt,
			strings.TrimSpace(directive),
			a.digests(analyses, a.cfg.MaxComparisonChars)),
	})
	if err != nil {
		return nil, eris.Wrap(err, "aggregate: custom call")
	}

	return &model.AggregateResult{
		Mode:      model.ModeCustom,
		Narrative: strings.TrimSpace(res.Raw),
		Usage:     res.Usage,
	}, nil
}

// matrixRows orders reply axes by the configured axis order, then any
// extra axes the model volunteered, alphabetically. Cell keys resolve
// to document ids; cells for unknown documents are dropped.
func (a *Aggregator) matrixRows(v any, analyses []*model.DocumentAnalysis) []model.ComparisonRow {
	raw, ok := v.(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	resolve := idResolver(analyses)

	rowFor := func(axis string) (model.ComparisonRow, bool) {
		cells, ok := raw[axis].(map[string]any)
		if !ok || len(cells) == 0 {
			return model.ComparisonRow{}, false
		}
		row := model.ComparisonRow{Axis: axis, Cells: make(map[string]string, len(cells))}
		for key, cell := range cells {
			text, _ := cell.(string)
			if strings.TrimSpace(text) == "" {
				continue
			}
			id, ok := resolve(key)
			if !ok {
				zap.L().Debug("comparison cell for unknown document dropped",
					zap.String("key", key), zap.String("axis", axis))
				continue
			}
			row.Cells[id] = strings.TrimSpace(text)
		}
		return row, len(row.Cells) > 0
	}

	var rows []model.ComparisonRow
	seen := make(map[string]bool, len(a.cfg.Axes))
	for _, axis := range a.cfg.Axes {
		seen[axis] = true
		if row, ok := rowFor(axis); ok {
			rows = append(rows, row)
		}
	}
	var extras []string
	for axis := range raw {
		if !seen[axis] {
			extras = append(extras, axis)
		}
	}
	sort.Strings(extras)
	for _, axis := range extras {
		if row, ok := rowFor(axis); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// timelineEntries decodes the reply timeline, resolves documents, and
// orders the entries. A missing order falls back to reply position; the
// chronology is best-effort either way.
func timelineEntries(v any, analyses []*model.DocumentAnalysis) []model.TimelineEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	resolve := idResolver(analyses)
	titleOf := make(map[string]string, len(analyses))
	for _, an := range analyses {
		titleOf[an.Document.ID] = an.Document.Title
	}

	var out []model.TimelineEntry
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := model.TimelineEntry{
			Order:        i + 1,
			Date:         payloadString(m, "date"),
			Contribution: payloadString(m, "contribution"),
		}
		if n, ok := m["order"].(float64); ok && n > 0 {
			entry.Order = int(n)
		}
		doc := payloadString(m, "document")
		if id, ok := resolve(doc); ok {
			entry.DocumentID = id
			entry.Title = titleOf[id]
		} else {
			entry.Title = doc
		}
		if entry.DocumentID == "" && entry.Title == "" {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func trendList(v any) []model.Trend {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.Trend
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := model.Trend{
			Name:        payloadString(m, "name"),
			Description: payloadString(m, "description"),
			Evidence:    stringSlice(m["evidence"]),
		}
		if t.Name == "" && t.Description == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// idResolver matches a model-reported document key, id or title in any
// case, back to a document id.
func idResolver(analyses []*model.DocumentAnalysis) func(string) (string, bool) {
	ids := make(map[string]string, len(analyses))
	titles := make(map[string]string, len(analyses))
	for _, an := range analyses {
		doc := an.Document
		ids[strings.ToLower(doc.ID)] = doc.ID
		if doc.Title != "" {
			titles[strings.ToLower(doc.Title)] = doc.ID
		}
	}
	return func(key string) (string, bool) {
		k := strings.ToLower(strings.TrimSpace(key))
		if id, ok := ids[k]; ok {
			return id, true
		}
		if id, ok := titles[k]; ok {
			return id, true
		}
		return "", false
	}
}

func payloadString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
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
