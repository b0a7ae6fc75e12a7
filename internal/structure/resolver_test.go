package structure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

// tablePage lays out a header-only detection: the detector found the
// header row, the body text below defeated extraction.
func tablePage() *fakeBackend {
	f := newFakeBackend(1)
	f.lines[1] = []docbackend.Line{
		{Text: "Table 1: Accuracy by model.", Region: model.Region{Page: 1, X: 100, Y: 180, W: 200, H: 10}},
		{Text: "Model Acc", Region: model.Region{Page: 1, X: 105, Y: 202, W: 180, H: 10}},
		{Text: "ResNet 76.4", Region: model.Region{Page: 1, X: 105, Y: 222, W: 180, H: 10}},
		{Text: "VGG 71.5", Region: model.Region{Page: 1, X: 105, Y: 245, W: 180, H: 10}},
		{Text: "In this work we compare classifiers.", Region: model.Region{Page: 1, X: 72, Y: 330, W: 400, H: 10}},
	}
	return f
}

func headerOnlyTable() model.Table {
	return model.Table{
		ID:       "table_1",
		Page:     1,
		Rows:     [][]string{{"Model", "Acc"}},
		Region:   model.Region{Page: 1, X: 100, Y: 200, W: 200, H: 20},
		Fidelity: model.FidelityTextReliable,
	}
}

func TestResolver_HeaderOnlyFallsBack(t *testing.T) {
	f := tablePage()
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	tb := doc.Tables[0]
	assert.Equal(t, model.FidelityScreenshotFallback, tb.Fidelity)
	assert.Equal(t, []byte("fake-png"), tb.Image)
	assert.Equal(t, 1, f.renderCalls)
	assert.Equal(t, 200, f.lastDPI)

	// Rows at 222 and 245 extend the region to y=255; the prose line
	// at 330 is past the gap limit. Padding adds 5pt on every side.
	want := model.Region{Page: 1, X: 95, Y: 195, W: 210, H: 65}
	assert.Equal(t, want, tb.Region)
	assert.Equal(t, want, f.lastRegion)
}

func TestResolver_MultiRowNeverRendered(t *testing.T) {
	f := tablePage()
	tb := headerOnlyTable()
	tb.Rows = [][]string{{"Model", "Acc"}, {"ResNet", "76.4"}}
	doc := &model.Document{ID: "d1", Tables: []model.Table{tb}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	assert.Equal(t, model.FidelityTextReliable, doc.Tables[0].Fidelity)
	assert.Nil(t, doc.Tables[0].Image)
	assert.Zero(t, f.renderCalls)
	assert.Equal(t, headerOnlyTable().Region, doc.Tables[0].Region)
}

func TestResolver_Idempotent(t *testing.T) {
	f := tablePage()
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}
	r := NewResolver(config.ExtractConfig{}, nil)

	require.NoError(t, r.Resolve(context.Background(), f, doc))
	first := doc.Tables[0]

	require.NoError(t, r.Resolve(context.Background(), f, doc))
	assert.Equal(t, 1, f.renderCalls)
	assert.Equal(t, first, doc.Tables[0])
}

func TestResolver_RenderFailureKeepsTextFidelity(t *testing.T) {
	f := tablePage()
	f.renderErr = errors.New("renderer exploded")
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	tb := doc.Tables[0]
	assert.Equal(t, model.FidelityTextReliable, tb.Fidelity)
	assert.Nil(t, tb.Image)
	assert.Equal(t, [][]string{{"Model", "Acc"}}, tb.Rows)
}

func TestResolver_EmptyRowsAlsoFallBack(t *testing.T) {
	f := tablePage()
	tb := headerOnlyTable()
	tb.Rows = nil
	doc := &model.Document{ID: "d1", Tables: []model.Table{tb}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))
	assert.Equal(t, model.FidelityScreenshotFallback, doc.Tables[0].Fidelity)
}

func TestResolver_ZeroRegionStaysText(t *testing.T) {
	f := tablePage()
	tb := headerOnlyTable()
	tb.Region = model.Region{}
	doc := &model.Document{ID: "d1", Tables: []model.Table{tb}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))
	assert.Equal(t, model.FidelityTextReliable, doc.Tables[0].Fidelity)
	assert.Zero(t, f.renderCalls)
}

func TestResolver_ExpansionStopsAtNextBlock(t *testing.T) {
	f := tablePage()
	f.lines[1] = []docbackend.Line{
		{Text: "Model Acc", Region: model.Region{Page: 1, X: 105, Y: 202, W: 180, H: 10}},
		{Text: "ResNet 76.4", Region: model.Region{Page: 1, X: 105, Y: 222, W: 180, H: 10}},
		{Text: "Table 2: The next table.", Region: model.Region{Page: 1, X: 100, Y: 240, W: 200, H: 10}},
	}
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	// Growth stops before the next table's caption at y=240.
	want := model.Region{Page: 1, X: 95, Y: 195, W: 210, H: 42}
	assert.Equal(t, want, f.lastRegion)
}

func TestResolver_ExpansionStopsAtSectionHeader(t *testing.T) {
	f := tablePage()
	f.lines[1] = []docbackend.Line{
		{Text: "Model Acc", Region: model.Region{Page: 1, X: 105, Y: 202, W: 180, H: 10}},
		{Text: "ResNet 76.4", Region: model.Region{Page: 1, X: 105, Y: 222, W: 180, H: 10}},
		{Text: "4 Experiments", Region: model.Region{Page: 1, X: 100, Y: 240, W: 200, H: 10}},
	}
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	want := model.Region{Page: 1, X: 95, Y: 195, W: 210, H: 42}
	assert.Equal(t, want, f.lastRegion)
}

func TestResolver_MisalignedLinesIgnored(t *testing.T) {
	f := tablePage()
	f.lines[1] = []docbackend.Line{
		{Text: "Model Acc", Region: model.Region{Page: 1, X: 105, Y: 202, W: 180, H: 10}},
		// A sidebar column far to the right of the table.
		{Text: "ResNet 76.4", Region: model.Region{Page: 1, X: 450, Y: 222, W: 120, H: 10}},
	}
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}

	r := NewResolver(config.ExtractConfig{}, nil)
	require.NoError(t, r.Resolve(context.Background(), f, doc))

	// Only the header line is aligned, so the region keeps its
	// detected height plus padding.
	want := model.Region{Page: 1, X: 95, Y: 195, W: 210, H: 30}
	assert.Equal(t, want, f.lastRegion)
}

func TestResolver_CancelledContext(t *testing.T) {
	f := tablePage()
	doc := &model.Document{ID: "d1", Tables: []model.Table{headerOnlyTable()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(config.ExtractConfig{}, nil)
	assert.ErrorIs(t, r.Resolve(ctx, f, doc), context.Canceled)
	assert.Zero(t, f.renderCalls)
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(config.ExtractConfig{}, nil)
	assert.Equal(t, defaultFallbackDPI, r.dpi)
	assert.Equal(t, defaultMaxRowGap, r.maxGap)
	assert.Equal(t, defaultRegionPad, r.pad)
	assert.NotNil(t, r.patterns)

	r = NewResolver(config.ExtractConfig{FallbackDPI: 144, MaxRowGap: 12, RegionPad: 2}, nil)
	assert.Equal(t, 144, r.dpi)
	assert.Equal(t, 12.0, r.maxGap)
	assert.Equal(t, 2.0, r.pad)
}
