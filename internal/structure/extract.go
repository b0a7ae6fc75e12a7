// Package structure builds the structural view of a scholarly document:
// front matter, section tree, tables, figures, equations and references.
// Extraction fails soft. A step that finds nothing leaves its collection
// empty; only losing the document entirely is an error.
package structure

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

// maxHeaderWords caps how long a line may be and still count as a
// section header. Real headers are short; prose that happens to start
// with "results" is not.
const maxHeaderWords = 8

// Extractor assembles model.Document values from an open backend.
type Extractor struct {
	patterns *Patterns
}

func NewExtractor(patterns *Patterns) *Extractor {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Extractor{patterns: patterns}
}

// pageData is everything the extractor pulls from one page, already
// Unicode-normalized.
type pageData struct {
	page  int
	text  string
	lines []docbackend.Line
}

// flatLine is one text line with its page attribution, used for the
// document-order section scan.
type flatLine struct {
	text string
	page int
}

// Extract builds the structural view of the document behind b. The
// returned document is complete except for table fidelity, which
// Resolver.Resolve finalizes afterwards.
func (e *Extractor) Extract(ctx context.Context, b docbackend.Backend, path string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:         DocID(path),
		SourcePath: path,
		Pages:      b.PageCount(),
	}

	pages := collectPages(b)

	var texts []string
	var flat []flatLine
	for _, pd := range pages {
		if pd.text == "" {
			continue
		}
		texts = append(texts, pd.text)
		for _, l := range strings.Split(pd.text, "\n") {
			flat = append(flat, flatLine{text: l, page: pd.page})
		}
	}
	doc.FullText = strings.Join(texts, "\n")

	doc.Sections = e.findSections(flat)
	doc.Abstract = abstractOf(doc, doc.FullText)

	var page1 []docbackend.Line
	if len(pages) > 0 {
		page1 = pages[0].lines
	}
	doc.Title, doc.Authors = frontMatter(b, page1)

	doc.Tables = collectTables(b, pages)
	doc.Figures = collectFigures(b, pages)
	doc.Equations = collectEquations(pages)
	doc.References = referencesFrom(doc)

	zap.L().Info("structural extraction complete",
		zap.String("doc", doc.ID),
		zap.Int("pages", doc.Pages),
		zap.Int("sections", len(doc.Sections)),
		zap.Int("tables", len(doc.Tables)),
		zap.Int("figures", len(doc.Figures)),
		zap.Int("equations", len(doc.Equations)),
		zap.Int("references", len(doc.References)))

	return doc, nil
}

// DocID derives a stable document id from the source path.
func DocID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func collectPages(b docbackend.Backend) []pageData {
	pages := make([]pageData, 0, b.PageCount())
	for p := 1; p <= b.PageCount(); p++ {
		pd := pageData{page: p}

		text, err := b.PageText(p)
		if err != nil {
			zap.L().Warn("page text extraction failed",
				zap.Int("page", p), zap.Error(err))
		} else {
			pd.text = Normalize(text)
		}

		lines, err := b.PageLines(p)
		if err != nil {
			zap.L().Warn("page line detection failed",
				zap.Int("page", p), zap.Error(err))
		} else {
			for i := range lines {
				lines[i].Text = Normalize(lines[i].Text)
			}
			pd.lines = lines
		}

		pages = append(pages, pd)
	}
	return pages
}

type headerHit struct {
	idx  int
	name string
	kind model.SectionKind
	page int
}

// findSections scans the flat line stream for header lines and slices
// the text between consecutive headers into section contents.
func (e *Extractor) findSections(flat []flatLine) []model.Section {
	var headers []headerHit
	for i, fl := range flat {
		trimmed := strings.TrimSpace(fl.text)
		if trimmed == "" || len(strings.Fields(trimmed)) > maxHeaderWords {
			continue
		}
		if kind, ok := e.patterns.Match(trimmed); ok {
			headers = append(headers, headerHit{idx: i, name: trimmed, kind: kind, page: fl.page})
		}
	}

	sections := make([]model.Section, 0, len(headers))
	for i, h := range headers {
		end := len(flat)
		if i+1 < len(headers) {
			end = headers[i+1].idx
		}
		var body []string
		for _, fl := range flat[h.idx+1 : end] {
			body = append(body, fl.text)
		}
		sections = append(sections, model.Section{
			Name:    h.name,
			Kind:    h.kind,
			Class:   h.kind.Class(),
			Content: strings.TrimSpace(strings.Join(body, "\n")),
			Index:   i,
			Page:    h.page,
		})
	}
	return sections
}

// abstractRe recovers the abstract from raw text when no abstract
// header survived line detection. The terminator group stops at the
// introduction, a keywords block, or the first numbered heading.
var abstractRe = regexp.MustCompile(`(?is)abstract[:\s]*\n(.*?)(?:\n\s*(?:1\.?\s*)?introduction|\n\s*keywords|\n\s*\d+\s)`)

func abstractOf(doc *model.Document, fullText string) string {
	if a := doc.ContentByKind(model.KindAbstract); a != "" {
		return collapseWS(a)
	}
	if m := abstractRe.FindStringSubmatch(fullText); m != nil {
		return collapseWS(m[1])
	}
	return ""
}

var wsRe = regexp.MustCompile(`\s+`)

func collapseWS(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}

// titleSkipRes filters first-page lines that are obviously not a title:
// preprint stamps, venue headers, years, and lowercase continuations.
var titleSkipRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(arxiv|preprint|published|accepted|submitted|proceedings|under review)`),
	regexp.MustCompile(`(?i)^(abstract|introduction|keywords)`),
	regexp.MustCompile(`^\d{4}`),
	regexp.MustCompile(`^[a-z]`),
}

func skipTitleLine(text string) bool {
	for _, re := range titleSkipRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// frontMatter resolves title and authors. Metadata wins when it is
// plausible; otherwise the first page's typography decides.
func frontMatter(b docbackend.Backend, page1 []docbackend.Line) (string, []string) {
	title, after := titleFromLines(page1)
	if mt := strings.TrimSpace(b.MetaTitle()); plausibleTitle(mt) {
		title = mt
	}
	if title == "" {
		title = firstNonEmpty(page1)
	}
	if title == "" {
		title = "Untitled"
	}

	authors := splitAuthorMeta(b.MetaAuthor())
	if authors == nil {
		authors = authorsAfterTitle(page1, after)
	}
	return title, authors
}

func plausibleTitle(t string) bool {
	if t == "" || len(t) > 300 {
		return false
	}
	return strings.ToLower(t) != "untitled"
}

// titleFromLines picks the largest-font cluster among the first ten
// non-empty lines of page one, joining at most two lines. It returns
// the title and the line index just past it, where the author block
// usually starts.
func titleFromLines(lines []docbackend.Line) (string, int) {
	type cand struct {
		idx  int
		text string
		size float64
	}
	var cands []cand
	maxSize := 0.0
	seen := 0
	for i, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		seen++
		if seen > 10 {
			break
		}
		if skipTitleLine(text) {
			continue
		}
		cands = append(cands, cand{idx: i, text: text, size: ln.FontSize})
		if ln.FontSize > maxSize {
			maxSize = ln.FontSize
		}
	}
	if len(cands) == 0 {
		return "", 0
	}

	var parts []string
	last := 0
	started := false
	for _, c := range cands {
		if c.size >= maxSize-0.5 {
			parts = append(parts, c.text)
			last = c.idx
			started = true
			if len(parts) == 2 {
				break
			}
		} else if started {
			break
		}
	}
	return strings.Join(parts, " "), last + 1
}

func firstNonEmpty(lines []docbackend.Line) string {
	for _, ln := range lines {
		if text := strings.TrimSpace(ln.Text); text != "" {
			return text
		}
	}
	return ""
}

func splitAuthorMeta(meta string) []string {
	meta = strings.TrimSpace(meta)
	if meta == "" {
		return nil
	}
	sep := ","
	if !strings.Contains(meta, ",") && strings.Contains(meta, ";") {
		sep = ";"
	}
	var out []string
	for _, p := range strings.Split(meta, sep) {
		if name := strings.TrimSpace(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// authorsAfterTitle guesses the author line: the first line after the
// title block that splits cleanly into short name parts. Layouts vary
// too much for more than a guess, and absent is fine.
func authorsAfterTitle(lines []docbackend.Line, from int) []string {
	checked := 0
	for i := from; i < len(lines); i++ {
		text := strings.TrimSpace(lines[i].Text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(text), "abstract") {
			return nil
		}
		if names := parseAuthorLine(text); names != nil {
			return names
		}
		checked++
		if checked == 4 {
			return nil
		}
	}
	return nil
}

var (
	affiliationMarks = strings.NewReplacer("*", "", "†", "", "‡", "", "§", "", "¶", "")
	trailingDigits   = regexp.MustCompile(`[\d,\s]+$`)
)

func parseAuthorLine(text string) []string {
	text = affiliationMarks.Replace(text)
	text = strings.ReplaceAll(text, " and ", ", ")
	var names []string
	for _, p := range strings.Split(text, ",") {
		name := strings.TrimSpace(trailingDigits.ReplaceAllString(strings.TrimSpace(p), ""))
		if name == "" {
			continue
		}
		words := strings.Fields(name)
		if len(words) < 2 || len(words) > 5 {
			return nil
		}
		if strings.ContainsAny(name, "@0123456789") {
			return nil
		}
		names = append(names, name)
	}
	if len(names) == 0 || len(names) > 12 {
		return nil
	}
	return names
}
