package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/model"
)

// Save writes the report to outPath in the configured format. When
// analyses are given, their selected resources are written as image
// assets first and a "Key Resources" section is appended to the report
// content, so every format carries the same text.
func (g *Generator) Save(report *model.Report, outPath string, analyses []*model.DocumentAnalysis) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}

	if len(analyses) > 0 {
		writeAssets(outPath, analyses)
		if section := g.resourceSection(analyses); section != "" {
			report.Content += section
		}
	}

	var content string
	switch strings.ToLower(g.cfg.Format) {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return eris.Wrap(err, "report: marshal json")
		}
		content = string(data)
	case "html":
		rendered, err := g.renderHTML(report)
		if err != nil {
			return err
		}
		content = rendered
	default:
		content = report.Content
	}

	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return eris.Wrap(err, "report: write file")
	}

	zap.L().Info("report: saved",
		zap.String("path", outPath),
		zap.String("format", g.cfg.Format),
		zap.Int("documents", len(report.Documents)))
	return nil
}

// resourceSection builds the "Key Resources" appendix: per document,
// its selected figures and fallback tables as image links, its
// text-reliable tables as markdown grids, and its equations as text.
// Selected resources that ended up with nothing to show (a figure whose
// image never materialized) are left out. Returns "" when no document
// contributes anything.
func (g *Generator) resourceSection(analyses []*model.DocumentAnalysis) string {
	var b strings.Builder

	for _, an := range analyses {
		sel := an.Resources
		if sel.IsEmpty() {
			continue
		}
		doc := an.Document
		var db strings.Builder

		var figs []*model.Figure
		for _, id := range sel.FigureIDs {
			if fig, ok := doc.Figure(id); ok && fig.ImagePath != "" {
				figs = append(figs, fig)
			}
		}
		if len(figs) > 0 {
			fmt.Fprintf(&db, "#### %s\n\n", g.t["key_figures"])
			for _, fig := range figs {
				caption := resourceCaption(fig.Caption, fig.ID)
				fmt.Fprintf(&db, "**%s**\n\n", caption)
				fmt.Fprintf(&db, "![%s](%s)\n\n", caption, fig.ImagePath)
			}
		}

		wroteTableHeading := false
		for _, id := range sel.TableIDs {
			tbl, ok := doc.Table(id)
			if !ok {
				continue
			}
			rendered := ""
			switch {
			case tbl.Fidelity == model.FidelityScreenshotFallback && tbl.ImagePath != "":
				caption := resourceCaption(tbl.Caption, tbl.ID)
				rendered = fmt.Sprintf("**%s**\n\n![%s](%s)\n\n", caption, caption, tbl.ImagePath)
			case tbl.Fidelity == model.FidelityTextReliable && len(tbl.Rows) > 0:
				rendered = fmt.Sprintf("**%s**\n\n%s\n", resourceCaption(tbl.Caption, tbl.ID), tableMarkdown(tbl))
			}
			if rendered == "" {
				continue
			}
			if !wroteTableHeading {
				fmt.Fprintf(&db, "#### %s\n\n", g.t["key_tables"])
				wroteTableHeading = true
			}
			db.WriteString(rendered)
		}

		var eqs []*model.Equation
		for _, id := range sel.EquationIDs {
			if eq, ok := doc.Equation(id); ok && eq.Text != "" {
				eqs = append(eqs, eq)
			}
		}
		if len(eqs) > 0 {
			fmt.Fprintf(&db, "#### %s\n\n", g.t["key_equations"])
			for _, eq := range eqs {
				fmt.Fprintf(&db, "%s\n\n", formatEquation(eq))
			}
		}

		if db.Len() > 0 {
			fmt.Fprintf(&b, "### %s\n\n", docTitleOf(doc))
			b.WriteString(db.String())
		}
	}

	if b.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n---\n\n## %s\n\n%s", g.t["key_resources"], b.String())
}

func docTitleOf(doc *model.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ID
}

// resourceCaption falls back to a display name built from the resource
// id ("fig_2" reads as "Figure 2") when no caption was extracted.
func resourceCaption(caption, id string) string {
	if caption != "" {
		return caption
	}
	if n, ok := strings.CutPrefix(id, "fig_"); ok {
		return "Figure " + n
	}
	if n, ok := strings.CutPrefix(id, "table_"); ok {
		return "Table " + n
	}
	return id
}

// tableMarkdown lays a text-reliable table out as a markdown grid. The
// first row is the header; shorter rows pad out, longer rows cut to the
// header width.
func tableMarkdown(t *model.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	var b strings.Builder

	header := t.Rows[0]
	cells := make([]string, len(header))
	for i, c := range header {
		cells[i] = tableCell(c)
	}
	fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))

	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(&b, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range t.Rows[1:] {
		cells := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cells[i] = tableCell(row[i])
			}
		}
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	return b.String()
}

// formatEquation wraps plain equation text in display-math delimiters;
// text that already reads as LaTeX passes through. A source equation
// number trails the math.
func formatEquation(eq *model.Equation) string {
	text := strings.TrimSpace(eq.Text)
	if !strings.Contains(text, `\`) && !strings.HasPrefix(text, "$") {
		text = "$$" + text + "$$"
	}
	if eq.Number != "" {
		text += " &nbsp;&nbsp;&nbsp;&nbsp; " + eq.Number
	}
	return text
}

// renderHTML converts the markdown content and wraps it in a
// self-contained styled page.
func (g *Generator) renderHTML(report *model.Report) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(report.Content), &body); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; line-height: 1.6; }
        h1 { color: #333; border-bottom: 2px solid #333; padding-bottom: 10px; }
        h2 { color: #444; margin-top: 30px; }
        h3 { color: #555; }
        table { border-collapse: collapse; width: 100%%; margin: 20px 0; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background-color: #f5f5f5; }
        img { max-width: 100%%; }
        code { background-color: #f4f4f4; padding: 2px 6px; border-radius: 3px; }
        pre { background-color: #f4f4f4; padding: 15px; border-radius: 5px; overflow-x: auto; }
        blockquote { border-left: 4px solid #ddd; margin: 0; padding-left: 20px; color: #666; }
    </style>
</head>
<body>
`, html.EscapeString(report.Title))
	b.Write(body.Bytes())
	fmt.Fprintf(&b, `<footer>
    <p><small>Generated at: %s</small></p>
</footer>
</body>
</html>
`, report.GeneratedAt.Format("2006-01-02 15:04:05"))

	return b.String(), nil
}
