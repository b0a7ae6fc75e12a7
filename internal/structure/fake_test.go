package structure

import (
	"context"
	"strings"

	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

// fakeBackend serves canned pages. When no page text is set explicitly
// it is derived from the page's lines, keeping both views consistent.
type fakeBackend struct {
	pageCount  int
	pageW      float64
	pageH      float64
	lines      map[int][]docbackend.Line
	texts      map[int]string
	tables     map[int][]docbackend.TableCandidate
	images     map[int][]docbackend.PageImage
	metaTitle  string
	metaAuthor string

	renderPNG   []byte
	renderErr   error
	renderCalls int
	lastRegion  model.Region
	lastDPI     int
}

var _ docbackend.Backend = (*fakeBackend)(nil)

func newFakeBackend(pages int) *fakeBackend {
	return &fakeBackend{
		pageCount: pages,
		pageW:     612,
		pageH:     792,
		lines:     map[int][]docbackend.Line{},
		texts:     map[int]string{},
		tables:    map[int][]docbackend.TableCandidate{},
		images:    map[int][]docbackend.PageImage{},
		renderPNG: []byte("fake-png"),
	}
}

func (f *fakeBackend) PageCount() int { return f.pageCount }

func (f *fakeBackend) PageSize(int) (float64, float64, error) {
	return f.pageW, f.pageH, nil
}

func (f *fakeBackend) PageText(page int) (string, error) {
	if t, ok := f.texts[page]; ok {
		return t, nil
	}
	parts := make([]string, 0, len(f.lines[page]))
	for _, ln := range f.lines[page] {
		parts = append(parts, ln.Text)
	}
	return strings.Join(parts, "\n"), nil
}

func (f *fakeBackend) PageLines(page int) ([]docbackend.Line, error) {
	return f.lines[page], nil
}

func (f *fakeBackend) PageTables(page int) ([]docbackend.TableCandidate, error) {
	return f.tables[page], nil
}

func (f *fakeBackend) PageImages(page int) ([]docbackend.PageImage, error) {
	return f.images[page], nil
}

func (f *fakeBackend) MetaTitle() string  { return f.metaTitle }
func (f *fakeBackend) MetaAuthor() string { return f.metaAuthor }

func (f *fakeBackend) RenderRegion(_ context.Context, region model.Region, dpi int) ([]byte, error) {
	f.renderCalls++
	f.lastRegion = region
	f.lastDPI = dpi
	if f.renderErr != nil {
		return nil, f.renderErr
	}
	return f.renderPNG, nil
}

func (f *fakeBackend) Close() error { return nil }

// ln builds a positioned line with the usual body-text column span.
func ln(page int, text string, y, size float64) docbackend.Line {
	return docbackend.Line{
		Text:     text,
		Region:   model.Region{Page: page, X: 72, Y: y, W: 400, H: size + 2},
		FontSize: size,
	}
}
