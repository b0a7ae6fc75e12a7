package docbackend

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os/exec"
	"strconv"

	"github.com/rotisserie/eris"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
)

// RenderDoc is the document view a renderer needs.
type RenderDoc interface {
	Path() string
	PageSize(page int) (w, h float64, err error)
	PageLines(page int) ([]Line, error)
}

// RegionRenderer rasterizes one page region to PNG.
type RegionRenderer interface {
	Render(ctx context.Context, doc RenderDoc, region model.Region, dpi int) ([]byte, error)
}

// NewRenderer creates a RegionRenderer based on config. "auto" prefers
// the external renderer when its binary is installed.
func NewRenderer(cfg config.ExtractConfig) (RegionRenderer, error) {
	bin := cfg.PdfToPpmPath
	if bin == "" {
		bin = "pdftoppm"
	}
	switch cfg.Renderer {
	case "poppler":
		return &popplerRenderer{bin: bin}, nil
	case "raster":
		return &rasterRenderer{}, nil
	case "auto", "":
		if path, err := exec.LookPath(bin); err == nil {
			return &popplerRenderer{bin: path}, nil
		}
		return &rasterRenderer{}, nil
	default:
		return nil, eris.Errorf("docbackend: unknown renderer %q", cfg.Renderer)
	}
}

// popplerRenderer shells out to pdftoppm, which rasterizes the true
// page appearance.
type popplerRenderer struct {
	bin string
}

func (r *popplerRenderer) Render(ctx context.Context, doc RenderDoc, region model.Region, dpi int) ([]byte, error) {
	if region.W <= 0 || region.H <= 0 {
		return nil, eris.Errorf("docbackend: render of empty region on page %d", region.Page)
	}

	cmd := exec.CommandContext(ctx, r.bin, popplerArgs(doc.Path(), region, dpi)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "docbackend: pdftoppm failed for page %d: %s", region.Page, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, eris.Errorf("docbackend: pdftoppm produced no output for page %d", region.Page)
	}
	return stdout.Bytes(), nil
}

// popplerArgs builds the pdftoppm invocation. Crop flags are pixels in
// the scaled raster with a top-left origin, which matches region space
// directly. Omitting the output prefix sends the PNG to stdout.
func popplerArgs(path string, region model.Region, dpi int) []string {
	scale := float64(dpi) / 72.0
	page := strconv.Itoa(region.Page)
	return []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", page, "-l", page,
		"-x", strconv.Itoa(px(region.X, scale)),
		"-y", strconv.Itoa(px(region.Y, scale)),
		"-W", strconv.Itoa(px(region.W, scale)),
		"-H", strconv.Itoa(px(region.H, scale)),
		path,
	}
}

func px(v, scale float64) int {
	return int(math.Round(v * scale))
}

// rasterRenderer redraws the region's text with a builtin bitmap font.
// It needs no external tooling, at the price of approximate appearance.
type rasterRenderer struct{}

func (r *rasterRenderer) Render(ctx context.Context, doc RenderDoc, region model.Region, dpi int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := float64(dpi) / 72.0
	w := px(region.W, scale)
	h := px(region.H, scale)
	if w < 1 || h < 1 {
		return nil, eris.Errorf("docbackend: render of empty region on page %d", region.Page)
	}

	lines, err := doc.PageLines(region.Page)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawBorder(img)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	for _, ln := range lines {
		if !ln.Region.Intersects(region) {
			continue
		}
		// Dot sits on the baseline, so offset by the line height.
		x := px(ln.Region.X-region.X, scale)
		y := px(ln.Region.Y-region.Y+ln.Region.H, scale)
		d.Dot = fixed.P(x, y)
		d.DrawString(ln.Text)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, eris.Wrap(err, "docbackend: encode region png")
	}
	return buf.Bytes(), nil
}

func drawBorder(img *image.RGBA) {
	b := img.Bounds()
	edge := color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	for x := b.Min.X; x < b.Max.X; x++ {
		img.Set(x, b.Min.Y, edge)
		img.Set(x, b.Max.Y-1, edge)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		img.Set(b.Min.X, y, edge)
		img.Set(b.Max.X-1, y, edge)
	}
}
