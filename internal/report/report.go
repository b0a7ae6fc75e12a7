// Package report renders run results into shareable artifacts: a
// markdown report per run (also exportable as JSON or styled HTML), the
// image assets the report links to, and an optional comparison-matrix
// XLSX. Rendering is pure formatting; everything worth saying was
// already computed upstream.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/quillsoft/paperscope/internal/analysis"
	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
)

// Generator renders reports in the configured language and format.
type Generator struct {
	cfg config.ReportConfig
	t   map[string]string
}

// NewGenerator creates a Generator. Unknown languages fall back to
// English.
func NewGenerator(cfg config.ReportConfig) *Generator {
	lang := normalizeLanguage(strings.ToLower(cfg.Language))
	return &Generator{cfg: cfg, t: labels[lang]}
}

// Generate renders the report for a run. The mode selects the template;
// single renders reading notes per document, the other modes add the
// aggregate artifact. An empty title gets a mode-appropriate default.
func (g *Generator) Generate(result *model.RunResult, mode model.AggregateMode, title string) (*model.Report, error) {
	if result == nil || len(result.Analyses) == 0 {
		return nil, eris.New("report: no analyses to render")
	}
	analyses := result.Analyses

	var content string
	switch mode {
	case model.ModeSingle:
		if title == "" {
			if len(analyses) == 1 {
				title = "Reading Notes: " + docTitle(analyses[0])
			} else {
				title = fmt.Sprintf("Reading Notes (%d papers)", len(analyses))
			}
		}
		content = g.renderSingle(analyses)
	case model.ModeComparison:
		if len(analyses) < 2 {
			return nil, eris.New("report: comparison needs at least two documents")
		}
		if title == "" {
			title = fmt.Sprintf("Paper Comparison Analysis (%d papers)", len(analyses))
		}
		content = g.renderComparison(analyses, result.Aggregate)
	case model.ModeTrend:
		if title == "" {
			title = fmt.Sprintf("Technology Trend Analysis (%d papers)", len(analyses))
		}
		content = g.renderTrend(analyses, result.Aggregate)
	case model.ModeCustom:
		if title == "" {
			title = fmt.Sprintf("Custom Analysis (%d papers)", len(analyses))
		}
		content = g.renderCustom(analyses, result.Aggregate)
	default:
		return nil, eris.Errorf("report: unknown report type %q", mode)
	}

	docs := make([]string, 0, len(analyses))
	for _, an := range analyses {
		docs = append(docs, docTitle(an))
	}

	return &model.Report{
		Type:        mode,
		Title:       title,
		Content:     content,
		GeneratedAt: time.Now(),
		Documents:   docs,
	}, nil
}

// renderSingle writes reading notes for each document in turn. The four
// dimension sections render their labeled fields; a dimension whose
// generation failed is left out entirely.
func (g *Generator) renderSingle(analyses []*model.DocumentAnalysis) string {
	var b strings.Builder
	for i, an := range analyses {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		g.renderNotes(&b, an)
	}
	return b.String()
}

func (g *Generator) renderNotes(b *strings.Builder, an *model.DocumentAnalysis) {
	t := g.t
	doc := an.Document

	fmt.Fprintf(b, "# %s\n\n", docTitle(an))
	if len(doc.Authors) > 0 {
		fmt.Fprintf(b, "**%s:** %s\n\n", t["authors"], strings.Join(doc.Authors, ", "))
	}
	if len(an.Keywords) > 0 {
		fmt.Fprintf(b, "**%s:** %s\n\n", t["keywords"], strings.Join(an.Keywords, ", "))
	}

	fmt.Fprintf(b, "## %s\n\n", t["summary"])
	if an.Summary != "" {
		b.WriteString(an.Summary + "\n\n")
	} else {
		b.WriteString(doc.Abstract + "\n\n")
	}

	if f := an.Finding(model.DimensionBackground); !f.Empty() {
		fmt.Fprintf(b, "## %s\n\n", t["research_background"])
		writeField(b, t["research_field"], detailString(f, "research_field"))
		writeField(b, t["problem"], detailString(f, "problem_definition"))
		writeField(b, t["motivation"], detailString(f, "motivation"))
		writeField(b, t["existing_limitations"], detailString(f, "existing_limitations"))
	}

	if f := an.Finding(model.DimensionTechnology); !f.Empty() {
		fmt.Fprintf(b, "## %s\n\n", t["technical_method"])
		writeField(b, t["model_type"], detailString(f, "model_type"))
		writeField(b, t["application_scenarios"], strings.Join(detailStrings(f, "application_scenarios"), ", "))
		writeField(b, t["method_overview"], detailString(f, "method_overview"))
		writeList(b, t["innovations"], detailStrings(f, "innovations"))
		writeList(b, t["key_designs"], detailStrings(f, "key_designs"))
		writeField(b, t["architecture"], detailString(f, "architecture"))
	}

	if f := an.Finding(model.DimensionExperiment); !f.Empty() {
		fmt.Fprintf(b, "## %s\n\n", t["experiments"])
		writeField(b, t["datasets"], strings.Join(detailStrings(f, "datasets"), ", "))
		writeField(b, t["metrics"], strings.Join(detailStrings(f, "metrics"), ", "))
		writeField(b, t["baselines"], strings.Join(detailStrings(f, "baselines"), ", "))
		writeField(b, t["setup"], detailString(f, "setup"))
		writeField(b, t["ablation_studies"], detailString(f, "ablation_studies"))
	}

	if f := an.Finding(model.DimensionResult); !f.Empty() {
		fmt.Fprintf(b, "## %s\n\n", t["results"])
		writeField(b, t["main_results"], detailString(f, "main_results"))
		writeField(b, t["performance_improvements"], detailString(f, "performance_improvements"))
		writeList(b, t["key_findings"], detailStrings(f, "key_findings"))
		writeField(b, t["limitations"], detailString(f, "limitations"))
		writeField(b, t["future_work"], detailString(f, "future_work"))
	}
}

func (g *Generator) renderComparison(analyses []*model.DocumentAnalysis, agg *model.AggregateResult) string {
	var b strings.Builder
	t := g.t

	fmt.Fprintf(&b, "# %s\n\n", t["comparison_title"])

	fmt.Fprintf(&b, "## %s\n\n", t["papers_analyzed"])
	for i, an := range analyses {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, docTitle(an))
		if len(an.Document.Authors) > 0 {
			fmt.Fprintf(&b, "   - %s: %s\n", t["authors"], strings.Join(an.Document.Authors, ", "))
		}
	}
	b.WriteString("\n")

	if agg != nil {
		if agg.OverallSummary != "" {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", t["overall_summary"], agg.OverallSummary)
		}
		if len(agg.Matrix) > 0 {
			fmt.Fprintf(&b, "## %s\n\n", t["comparison_matrix"])
			for _, row := range agg.Matrix {
				fmt.Fprintf(&b, "### %s\n\n", row.Axis)
				fmt.Fprintf(&b, "| %s | %s |\n", t["paper"], t["description"])
				b.WriteString("|-------|-------------|\n")
				for _, an := range analyses {
					if cell, ok := row.Cells[an.Document.ID]; ok {
						fmt.Fprintf(&b, "| %s | %s |\n", docTitle(an), tableCell(cell))
					}
				}
				b.WriteString("\n")
			}
		}
		writeBullets(&b, t["common_themes"], agg.CommonThemes)
		writeBullets(&b, t["key_differences"], agg.KeyDifferences)
	}

	fmt.Fprintf(&b, "## %s\n\n", t["individual_summaries"])
	for _, an := range analyses {
		fmt.Fprintf(&b, "### %s\n\n", docTitle(an))
		if f := an.Finding(model.DimensionTechnology); !f.Empty() {
			if mt := detailString(f, "model_type"); mt != "" {
				fmt.Fprintf(&b, "**%s:** %s  \n", t["model_type"], mt)
			}
			if sc := detailStrings(f, "application_scenarios"); len(sc) > 0 {
				fmt.Fprintf(&b, "**%s:** %s  \n", t["application_scenarios"], strings.Join(sc, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString(shortSummary(an) + "\n\n")
	}

	return b.String()
}

func (g *Generator) renderTrend(analyses []*model.DocumentAnalysis, agg *model.AggregateResult) string {
	var b strings.Builder
	t := g.t

	fmt.Fprintf(&b, "# %s\n\n", t["trend_title"])

	fmt.Fprintf(&b, "## %s\n\n", t["papers_analyzed"])
	for i, an := range analyses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, docTitle(an))
	}
	b.WriteString("\n")

	if agg == nil {
		return b.String()
	}

	if agg.OverallSummary != "" {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", t["overall_summary"], agg.OverallSummary)
	}

	if len(agg.Timeline) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t["technology_timeline"])
		for _, entry := range agg.Timeline {
			if entry.Date != "" {
				fmt.Fprintf(&b, "**%d. %s** (%s)\n", entry.Order, entry.Title, entry.Date)
			} else {
				fmt.Fprintf(&b, "**%d. %s**\n", entry.Order, entry.Title)
			}
			if entry.Contribution != "" {
				fmt.Fprintf(&b, "   - %s\n", entry.Contribution)
			}
			b.WriteString("\n")
		}
	}

	if len(agg.Trends) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t["identified_trends"])
		for _, trend := range agg.Trends {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", trend.Name, trend.Description)
			if len(trend.Evidence) > 0 {
				fmt.Fprintf(&b, "**%s:**\n", t["evidence"])
				for _, ev := range trend.Evidence {
					fmt.Fprintf(&b, "- %s\n", ev)
				}
				b.WriteString("\n")
			}
		}
	}

	writeBullets(&b, t["common_themes"], agg.CommonThemes)
	writeBullets(&b, t["key_differences"], agg.KeyDifferences)

	return b.String()
}

// renderCustom writes the free-form narrative a custom directive
// produced, framed by the document list.
func (g *Generator) renderCustom(analyses []*model.DocumentAnalysis, agg *model.AggregateResult) string {
	var b strings.Builder
	t := g.t

	fmt.Fprintf(&b, "# %s\n\n", t["custom_title"])

	fmt.Fprintf(&b, "## %s\n\n", t["papers_analyzed"])
	for i, an := range analyses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, docTitle(an))
	}
	b.WriteString("\n")

	if agg != nil && agg.Narrative != "" {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", t["analysis"], agg.Narrative)
	}
	if agg != nil {
		writeBullets(&b, t["common_themes"], agg.CommonThemes)
	}

	return b.String()
}

// docTitle names a document for display, falling back to its id when no
// title survived extraction.
func docTitle(an *model.DocumentAnalysis) string {
	if an.Document.Title != "" {
		return an.Document.Title
	}
	return an.Document.ID
}

func shortSummary(an *model.DocumentAnalysis) string {
	if an.Summary != "" {
		return an.Summary
	}
	if len([]rune(an.Document.Abstract)) > 500 {
		return analysis.Truncate(an.Document.Abstract, 500) + "..."
	}
	return an.Document.Abstract
}

// writeField emits one "**Label:** value" line, skipping empty values.
func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "**%s:** %s\n\n", label, value)
}

// writeList emits a labeled numbered list, skipping empty lists.
func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", label)
	for i, item := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, item)
	}
	b.WriteString("\n")
}

func writeBullets(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// tableCell flattens prose into one markdown table cell.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}

func detailString(f model.DimensionFinding, key string) string {
	if f.Details == nil {
		return ""
	}
	s, _ := f.Details[key].(string)
	return strings.TrimSpace(s)
}

func detailStrings(f model.DimensionFinding, key string) []string {
	if f.Details == nil {
		return nil
	}
	list, ok := f.Details[key].([]any)
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
