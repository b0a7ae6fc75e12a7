package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
)

// Selection caps. The report embeds what the selector picks, and a
// report drowning in floats stops being a summary.
const (
	maxFigures   = 3
	maxTables    = 3
	maxEquations = 5
)

// Selector asks the gateway which resources matter most for the report.
// It sends captions and short descriptors only, never image payloads.
type Selector struct {
	gw *gateway.Gateway
}

func NewSelector(gw *gateway.Gateway) *Selector {
	return &Selector{gw: gw}
}

// Select ranks the document's figures, tables and equations by
// salience, and reports the tokens the call consumed. Ids the model
// invents are dropped silently; over-limit lists are cut in rank
// order. A failed call selects nothing, and a document without
// resources never makes the call at all.
func (s *Selector) Select(ctx context.Context, doc *model.Document) (model.ResourceSelection, model.TokenUsage) {
	digest := resourceDigest(doc)
	if digest == "" {
		return model.ResourceSelection{}, model.TokenUsage{}
	}

	res, err := s.gw.Complete(ctx, gateway.Request{
		System: extractionSystem,
		Prompt: fmt.Sprintf(resourcePrompt, doc.Title, digest),
		Shape:  resourceShape,
	})
	if err != nil {
		zap.L().Warn("resource selection failed",
			zap.String("doc", doc.ID), zap.Error(err))
		return model.ResourceSelection{}, model.TokenUsage{}
	}

	return model.ResourceSelection{
		FigureIDs:   filterIDs(stringSlice(res.Structured["figures"]), figureIDs(doc), maxFigures),
		TableIDs:    filterIDs(stringSlice(res.Structured["tables"]), tableIDs(doc), maxTables),
		EquationIDs: filterIDs(stringSlice(res.Structured["equations"]), equationIDs(doc), maxEquations),
	}, res.Usage
}

// resourceDigest lists every resource with its id and a one-line
// descriptor, the vocabulary the model must answer in.
func resourceDigest(doc *model.Document) string {
	var b strings.Builder

	if len(doc.Figures) > 0 {
		fmt.Fprintf(&b, "Available figures (%d):\n", len(doc.Figures))
		for _, f := range doc.Figures {
			caption := f.Caption
			if caption == "" {
				caption = fmt.Sprintf("Figure on page %d", f.Page)
			}
			fmt.Fprintf(&b, "  %s: %s (page %d)\n", f.ID, caption, f.Page)
		}
	}
	if len(doc.Tables) > 0 {
		fmt.Fprintf(&b, "Available tables (%d):\n", len(doc.Tables))
		for _, t := range doc.Tables {
			caption := t.Caption
			if caption == "" {
				caption = fmt.Sprintf("Table on page %d", t.Page)
			}
			fmt.Fprintf(&b, "  %s: %s\n", t.ID, caption)
		}
	}
	if len(doc.Equations) > 0 {
		fmt.Fprintf(&b, "Available equations (%d):\n", len(doc.Equations))
		for _, eq := range doc.Equations {
			label := eq.ID
			if eq.Number != "" {
				label += " " + eq.Number
			}
			fmt.Fprintf(&b, "  %s: %s\n", label, Truncate(eq.Text, 80))
		}
	}

	return strings.TrimSpace(b.String())
}

func filterIDs(ids []string, known map[string]struct{}, limit int) []string {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func figureIDs(doc *model.Document) map[string]struct{} {
	out := make(map[string]struct{}, len(doc.Figures))
	for _, f := range doc.Figures {
		out[f.ID] = struct{}{}
	}
	return out
}

func tableIDs(doc *model.Document) map[string]struct{} {
	out := make(map[string]struct{}, len(doc.Tables))
	for _, t := range doc.Tables {
		out[t.ID] = struct{}{}
	}
	return out
}

func equationIDs(doc *model.Document) map[string]struct{} {
	out := make(map[string]struct{}, len(doc.Equations))
	for _, eq := range doc.Equations {
		out[eq.ID] = struct{}{}
	}
	return out
}
