package analysis

import (
	"strings"

	"github.com/quillsoft/paperscope/internal/model"
)

// Inner budgets for dimension context assembly, in characters. The
// assembled context is then cut to the configured per-dimension budget.
const (
	introBudget      = 2000
	relatedBudget    = 1000
	methodLeadBudget = 1500
	archParaBudget   = 500
	archSoftTotal    = 2500
)

// Truncate cuts s to at most n characters, preserving the prefix. It is
// deterministic and idempotent; every prompt budget cut in the analysis
// and aggregation stages goes through it.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// contextFor assembles the document content a dimension is analyzed
// from. Each dimension reads different sections; everything is cut to
// budget at the end.
func contextFor(doc *model.Document, dim model.Dimension, budget int) string {
	var out string
	switch dim {
	case model.DimensionBackground:
		out = backgroundContext(doc)
	case model.DimensionTechnology:
		out = technologyContext(doc)
	case model.DimensionExperiment:
		out = experimentContext(doc)
	case model.DimensionResult:
		out = resultContext(doc)
	}
	return Truncate(out, budget)
}

func backgroundContext(doc *model.Document) string {
	parts := []string{doc.Abstract}
	if intro := doc.ContentByKind(model.KindIntroduction); intro != "" {
		parts = append(parts, Truncate(intro, introBudget))
	}
	if related := doc.ContentByKind(model.KindRelatedWork); related != "" {
		parts = append(parts, Truncate(related, relatedBudget))
	}
	return joinNonEmpty(parts)
}

// technologyContext takes the lead of the method section, then samples
// architecture-flavored paragraphs from the rest. Scale and heritage
// statements tend to sit deep in the section, past any flat prefix cut.
func technologyContext(doc *model.Document) string {
	method := doc.ContentByKind(model.KindMethod)
	if method == "" {
		return doc.Abstract
	}

	lead := Truncate(method, methodLeadBudget)
	parts := []string{lead}
	total := len([]rune(lead))

	for _, para := range strings.Split(method, "\n\n") {
		if !mentionsArchitecture(para) || strings.Contains(lead, para) {
			continue
		}
		p := Truncate(para, archParaBudget)
		parts = append(parts, p)
		total += len([]rune(p))
		if total > archSoftTotal {
			break
		}
	}
	return joinNonEmpty(parts)
}

func experimentContext(doc *model.Document) string {
	if exp := doc.ContentByKind(model.KindExperiment); exp != "" {
		return exp
	}
	return doc.FullText
}

func resultContext(doc *model.Document) string {
	parts := []string{
		doc.ContentByKind(model.KindResult),
		doc.ContentByKind(model.KindConclusion),
	}
	if out := joinNonEmpty(parts); out != "" {
		return out
	}
	return doc.Abstract
}

func mentionsArchitecture(para string) bool {
	lower := strings.ToLower(para)
	for _, kw := range archKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
