package aggregate

import (
	"fmt"
	"strings"

	"github.com/quillsoft/paperscope/internal/analysis"
	"github.com/quillsoft/paperscope/internal/model"
)

const (
	defaultDocChars        = 3000
	defaultComparisonChars = 1500
	defaultTrendChars      = 1000

	abstractChars = 500
)

var digestLabels = map[model.Dimension]string{
	model.DimensionBackground: "Background",
	model.DimensionTechnology: "Technology",
	model.DimensionExperiment: "Experiments",
	model.DimensionResult:     "Results",
}

// digests renders one block per document, numbered and separated so the
// model can address papers individually. perDim caps each dimension
// digest; the assembled block is then cut to the per-document budget.
func (a *Aggregator) digests(analyses []*model.DocumentAnalysis, perDim int) string {
	blocks := make([]string, 0, len(analyses))
	for i, an := range analyses {
		blocks = append(blocks, a.digest(i+1, an, perDim))
	}
	return strings.Join(blocks, "\n---\n")
}

func (a *Aggregator) digest(n int, an *model.DocumentAnalysis, perDim int) string {
	doc := an.Document
	var b strings.Builder
	fmt.Fprintf(&b, "Paper %d:\n", n)
	fmt.Fprintf(&b, "Document id: %s\n", doc.ID)
	fmt.Fprintf(&b, "Title: %s\n", doc.Title)
	if len(doc.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(doc.Authors, ", "))
	}
	if doc.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", analysis.Truncate(doc.Abstract, abstractChars))
	}
	if len(an.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(an.Keywords, ", "))
	}
	for _, dim := range model.AllDimensions() {
		f := an.Finding(dim)
		if f.Empty() || f.Summary == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", digestLabels[dim], analysis.Truncate(f.Summary, perDim))
	}
	return analysis.Truncate(strings.TrimRight(b.String(), "\n"), a.cfg.MaxDocChars)
}
