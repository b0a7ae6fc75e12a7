package docbackend

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/model"
)

type fakeRenderDoc struct {
	path  string
	w, h  float64
	lines []Line
}

func (f *fakeRenderDoc) Path() string { return f.path }

func (f *fakeRenderDoc) PageSize(page int) (float64, float64, error) {
	return f.w, f.h, nil
}

func (f *fakeRenderDoc) PageLines(page int) ([]Line, error) {
	return f.lines, nil
}

func TestNewRenderer_Poppler(t *testing.T) {
	r, err := NewRenderer(config.ExtractConfig{Renderer: "poppler", PdfToPpmPath: "mybin"})
	require.NoError(t, err)

	pr, ok := r.(*popplerRenderer)
	require.True(t, ok)
	assert.Equal(t, "mybin", pr.bin)
}

func TestNewRenderer_PopplerDefaultBinary(t *testing.T) {
	r, err := NewRenderer(config.ExtractConfig{Renderer: "poppler"})
	require.NoError(t, err)

	pr, ok := r.(*popplerRenderer)
	require.True(t, ok)
	assert.Equal(t, "pdftoppm", pr.bin)
}

func TestNewRenderer_Raster(t *testing.T) {
	r, err := NewRenderer(config.ExtractConfig{Renderer: "raster"})
	require.NoError(t, err)
	assert.IsType(t, &rasterRenderer{}, r)
}

func TestNewRenderer_AutoWithoutBinary(t *testing.T) {
	r, err := NewRenderer(config.ExtractConfig{
		Renderer:     "auto",
		PdfToPpmPath: "/nonexistent/bin/pdftoppm-missing",
	})
	require.NoError(t, err)
	assert.IsType(t, &rasterRenderer{}, r)
}

func TestNewRenderer_EmptyDefaultsToAuto(t *testing.T) {
	r, err := NewRenderer(config.ExtractConfig{
		PdfToPpmPath: "/nonexistent/bin/pdftoppm-missing",
	})
	require.NoError(t, err)
	assert.IsType(t, &rasterRenderer{}, r)
}

func TestNewRenderer_Unknown(t *testing.T) {
	_, err := NewRenderer(config.ExtractConfig{Renderer: "ghostscript"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown renderer")
}

func TestPopplerArgs(t *testing.T) {
	region := model.Region{Page: 3, X: 72, Y: 144, W: 216, H: 72}

	args := popplerArgs("/tmp/paper.pdf", region, 200)

	assert.Equal(t, []string{
		"-png",
		"-r", "200",
		"-f", "3", "-l", "3",
		"-x", "200",
		"-y", "400",
		"-W", "600",
		"-H", "200",
		"/tmp/paper.pdf",
	}, args)
}

func TestPx_Rounds(t *testing.T) {
	assert.Equal(t, 200, px(72, 200.0/72.0))
	assert.Equal(t, 3, px(1, 2.5))
	assert.Equal(t, 0, px(0, 2.5))
}

func TestRasterRenderer_Render(t *testing.T) {
	doc := &fakeRenderDoc{
		path: "ignored.pdf",
		w:    612, h: 792,
		lines: []Line{
			{Text: "alpha 1.0", Region: model.Region{Page: 1, X: 105, Y: 110, W: 50, H: 10}},
			{Text: "far away", Region: model.Region{Page: 1, X: 105, Y: 300, W: 50, H: 10}},
		},
	}
	region := model.Region{Page: 1, X: 100, Y: 100, W: 72, H: 36}

	out, err := (&rasterRenderer{}).Render(context.Background(), doc, region, 144)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 144, img.Bounds().Dx())
	assert.Equal(t, 72, img.Bounds().Dy())

	// The in-region line must have left black glyph pixels behind.
	black := 0
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && b == 0 {
				black++
			}
		}
	}
	assert.Greater(t, black, 0)
}

func TestRasterRenderer_EmptyRegion(t *testing.T) {
	doc := &fakeRenderDoc{w: 612, h: 792}

	_, err := (&rasterRenderer{}).Render(context.Background(), doc, model.Region{Page: 1}, 200)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty region")
}

func TestRasterRenderer_CancelledContext(t *testing.T) {
	doc := &fakeRenderDoc{w: 612, h: 792}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	region := model.Region{Page: 1, X: 0, Y: 0, W: 100, H: 100}
	_, err := (&rasterRenderer{}).Render(ctx, doc, region, 200)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDrawBorder_PaintsEdges(t *testing.T) {
	doc := &fakeRenderDoc{w: 612, h: 792}
	region := model.Region{Page: 1, X: 0, Y: 0, W: 36, H: 36}

	out, err := (&rasterRenderer{}).Render(context.Background(), doc, region, 72)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	edge := color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xFF}
	er, eg, eb, _ := edge.RGBA()
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, er, r)
	assert.Equal(t, eg, g)
	assert.Equal(t, eb, b)
}
