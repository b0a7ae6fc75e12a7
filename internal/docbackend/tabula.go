package docbackend

import (
	"context"
	"strings"
	"unicode/utf16"

	"github.com/rotisserie/eris"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/layout"
	tmodel "github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
)

// minImageSide filters out embedded images that are rules or icons
// rather than figures.
const minImageSide = 32

type tabulaBackend struct {
	path     string
	r        *reader.Reader
	pages    int
	detector tables.Detector
	renderer RegionRenderer

	layouts map[int]*layout.LineLayout
	sizes   map[int][2]float64
}

// Open opens a PDF and wires the adapter described by cfg.
func Open(path string, cfg config.ExtractConfig) (Backend, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "docbackend: open %s", path)
	}
	count, err := r.PageCount()
	if err != nil {
		_ = r.Close()
		return nil, eris.Wrapf(err, "docbackend: page count of %s", path)
	}
	if count == 0 {
		_ = r.Close()
		return nil, eris.Errorf("docbackend: %s has no pages", path)
	}
	detector, err := newTableDetector(cfg.TableDetector)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	renderer, err := NewRenderer(cfg)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return &tabulaBackend{
		path:     path,
		r:        r,
		pages:    count,
		detector: detector,
		renderer: renderer,
		layouts:  make(map[int]*layout.LineLayout),
		sizes:    make(map[int][2]float64),
	}, nil
}

// Opener binds extraction config into an OpenFunc.
func Opener(cfg config.ExtractConfig) OpenFunc {
	return func(path string) (Backend, error) {
		return Open(path, cfg)
	}
}

// newTableDetector builds a per-document detector instance. The shared
// registry instance is only used for names registered by other code.
func newTableDetector(name string) (tables.Detector, error) {
	switch name {
	case "geometric", "":
		det := tables.NewGeometricDetector()
		cfg := tables.DefaultConfig()
		// Header-only grids must survive detection; fidelity
		// resolution decides their fate.
		cfg.MinRows = 1
		if err := det.Configure(cfg); err != nil {
			return nil, eris.Wrap(err, "docbackend: configure table detector")
		}
		return det, nil
	default:
		if det := tables.GetDetector(name); det != nil {
			return det, nil
		}
		return nil, eris.Errorf("docbackend: unknown table detector %q", name)
	}
}

func (b *tabulaBackend) PageCount() int {
	return b.pages
}

func (b *tabulaBackend) pdfPage(page int) (*pages.Page, error) {
	if page < 1 || page > b.pages {
		return nil, eris.Errorf("docbackend: page %d out of range [1,%d]", page, b.pages)
	}
	p, err := b.r.GetPage(page - 1)
	if err != nil {
		return nil, eris.Wrapf(err, "docbackend: load page %d", page)
	}
	return p, nil
}

func (b *tabulaBackend) PageSize(page int) (float64, float64, error) {
	if s, ok := b.sizes[page]; ok {
		return s[0], s[1], nil
	}
	p, err := b.pdfPage(page)
	if err != nil {
		return 0, 0, err
	}
	w, err := p.Width()
	if err != nil {
		return 0, 0, eris.Wrapf(err, "docbackend: width of page %d", page)
	}
	h, err := p.Height()
	if err != nil {
		return 0, 0, eris.Wrapf(err, "docbackend: height of page %d", page)
	}
	b.sizes[page] = [2]float64{w, h}
	return w, h, nil
}

// pageLayout detects and caches the line layout of one page. Layout
// detection walks every fragment, so each page is analyzed once.
func (b *tabulaBackend) pageLayout(page int) (*layout.LineLayout, error) {
	if l, ok := b.layouts[page]; ok {
		return l, nil
	}
	p, err := b.pdfPage(page)
	if err != nil {
		return nil, err
	}
	frags, err := b.r.ExtractTextFragments(p)
	if err != nil {
		return nil, eris.Wrapf(err, "docbackend: extract text on page %d", page)
	}
	w, h, err := b.PageSize(page)
	if err != nil {
		return nil, err
	}
	l := layout.NewLineDetector().Detect(frags, w, h)
	b.layouts[page] = l
	return l, nil
}

func (b *tabulaBackend) PageText(page int) (string, error) {
	l, err := b.pageLayout(page)
	if err != nil {
		return "", err
	}
	return l.GetText(), nil
}

func (b *tabulaBackend) PageLines(page int) ([]Line, error) {
	lay, err := b.pageLayout(page)
	if err != nil {
		return nil, err
	}
	_, pageH, err := b.PageSize(page)
	if err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(lay.Lines))
	for _, ln := range lay.Lines {
		out = append(out, Line{
			Text:     ln.Text,
			Region:   regionFromBBox(page, pageH, ln.BBox),
			FontSize: ln.AverageFontSize,
			Centered: ln.Alignment == layout.AlignCenter,
		})
	}
	return out, nil
}

func (b *tabulaBackend) PageTables(page int) ([]TableCandidate, error) {
	lay, err := b.pageLayout(page)
	if err != nil {
		return nil, err
	}
	w, h, err := b.PageSize(page)
	if err != nil {
		return nil, err
	}

	tp := tmodel.NewPage(w, h)
	tp.Number = page
	tp.RawText = fragmentsForDetection(lay)

	found, err := b.detector.Detect(tp)
	if err != nil {
		return nil, eris.Wrapf(err, "docbackend: detect tables on page %d", page)
	}

	out := make([]TableCandidate, 0, len(found))
	for _, t := range found {
		rows := make([][]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				cells = append(cells, strings.TrimSpace(c.Text))
			}
			rows = append(rows, cells)
		}
		out = append(out, TableCandidate{
			Rows:   rows,
			Region: regionFromBBox(page, h, t.BBox),
		})
	}
	return out, nil
}

func (b *tabulaBackend) PageImages(page int) ([]PageImage, error) {
	p, err := b.pdfPage(page)
	if err != nil {
		return nil, err
	}
	images, err := b.r.ExtractPageImages(p)
	if err != nil {
		return nil, eris.Wrapf(err, "docbackend: extract images on page %d", page)
	}
	var out []PageImage
	for _, img := range images {
		if img.Width < minImageSide || img.Height < minImageSide {
			continue
		}
		png, err := img.ToPNG()
		if err != nil {
			zap.L().Debug("skipping undecodable page image",
				zap.Int("page", page),
				zap.String("name", img.Name),
				zap.Error(err))
			continue
		}
		out = append(out, PageImage{
			Name:   img.Name,
			Width:  img.Width,
			Height: img.Height,
			PNG:    png,
		})
	}
	return out, nil
}

func (b *tabulaBackend) MetaTitle() string  { return b.metaString("Title") }
func (b *tabulaBackend) MetaAuthor() string { return b.metaString("Author") }

func (b *tabulaBackend) metaString(key string) string {
	info, err := b.r.GetInfo()
	if err != nil || info == nil {
		return ""
	}
	obj := info.Get(key)
	if obj == nil {
		return ""
	}
	resolved, err := b.r.Resolve(obj)
	if err != nil {
		return ""
	}
	s, ok := resolved.(core.String)
	if !ok {
		return ""
	}
	return decodePDFString(string(s))
}

func (b *tabulaBackend) RenderRegion(ctx context.Context, region model.Region, dpi int) ([]byte, error) {
	return b.renderer.Render(ctx, b, region, dpi)
}

// Path satisfies RenderDoc.
func (b *tabulaBackend) Path() string {
	return b.path
}

func (b *tabulaBackend) Close() error {
	if err := b.r.Close(); err != nil {
		return eris.Wrapf(err, "docbackend: close %s", b.path)
	}
	return nil
}

// regionFromBBox flips a bottom-origin PDF box into the top-origin
// region space the rest of the program uses.
func regionFromBBox(page int, pageH float64, b tmodel.BBox) model.Region {
	return model.Region{
		Page: page,
		X:    b.X,
		Y:    pageH - (b.Y + b.Height),
		W:    b.Width,
		H:    b.Height,
	}
}

// fragmentsForDetection projects layout fragments into the table
// detector's fragment type, still in PDF coordinates.
func fragmentsForDetection(lay *layout.LineLayout) []tmodel.TextFragment {
	frags := lay.GetAllFragments()
	out := make([]tmodel.TextFragment, len(frags))
	for i, f := range frags {
		out[i] = tmodel.TextFragment{
			Text:     f.Text,
			BBox:     tmodel.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		}
	}
	return out
}

// decodePDFString handles the UTF-16BE form PDF text strings may use.
func decodePDFString(s string) string {
	if len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF {
		raw := []byte(s[2:])
		u16 := make([]uint16, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			u16 = append(u16, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return strings.TrimSpace(string(utf16.Decode(u16)))
	}
	return strings.TrimSpace(s)
}
