package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

// --- Backend fake ---

// fakeBackend is a minimal one-page document. Title and author come
// from metadata so the tests stay independent of layout heuristics.
type fakeBackend struct {
	text  string
	title string
}

var _ docbackend.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) PageCount() int { return 1 }

func (f *fakeBackend) PageSize(int) (float64, float64, error) { return 612, 792, nil }

func (f *fakeBackend) PageText(int) (string, error) { return f.text, nil }

func (f *fakeBackend) PageLines(int) ([]docbackend.Line, error) { return nil, nil }

func (f *fakeBackend) PageTables(int) ([]docbackend.TableCandidate, error) { return nil, nil }

func (f *fakeBackend) PageImages(int) ([]docbackend.PageImage, error) { return nil, nil }

func (f *fakeBackend) MetaTitle() string { return f.title }

func (f *fakeBackend) MetaAuthor() string { return "" }

func (f *fakeBackend) RenderRegion(context.Context, model.Region, int) ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeBackend) Close() error { return nil }

// fakeOpen opens fake backends, failing for the listed paths.
func fakeOpen(failPaths ...string) docbackend.OpenFunc {
	broken := make(map[string]bool, len(failPaths))
	for _, p := range failPaths {
		broken[p] = true
	}
	return func(path string) (docbackend.Backend, error) {
		if broken[path] {
			return nil, eris.New("corrupt xref table")
		}
		return &fakeBackend{
			text:  "Body text of " + filepath.Base(path) + ".",
			title: "Title of " + filepath.Base(path),
		}, nil
	}
}

// --- Analyzer / Selector / Aggregator fakes ---

type fakeAnalyzer struct{}

func (f *fakeAnalyzer) Analyze(_ context.Context, doc *model.Document) *model.DocumentAnalysis {
	an := &model.DocumentAnalysis{
		Document: doc,
		Findings: make(map[model.Dimension]model.DimensionFinding),
		Summary:  "summary of " + doc.ID,
		Usage:    model.TokenUsage{InputTokens: 100, OutputTokens: 40},
	}
	for _, dim := range model.AllDimensions() {
		an.Findings[dim] = model.DimensionFinding{
			DocumentID: doc.ID,
			Dimension:  dim,
			Summary:    string(dim) + " of " + doc.ID,
			Confidence: model.ConfidenceFull,
		}
	}
	return an
}

type fakeSelector struct{}

func (f *fakeSelector) Select(_ context.Context, doc *model.Document) (model.ResourceSelection, model.TokenUsage) {
	return model.ResourceSelection{}, model.TokenUsage{InputTokens: 7, OutputTokens: 3}
}

type fakeAggregator struct {
	mu        sync.Mutex
	err       error
	calls     int
	analyses  []*model.DocumentAnalysis
	mode      model.AggregateMode
	directive string
}

func (f *fakeAggregator) Aggregate(_ context.Context, analyses []*model.DocumentAnalysis, mode model.AggregateMode, directive string) (*model.AggregateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.analyses = analyses
	f.mode = mode
	f.directive = directive
	if f.err != nil {
		return nil, f.err
	}
	return &model.AggregateResult{
		Mode:           mode,
		OverallSummary: "overall",
		Usage:          model.TokenUsage{InputTokens: 50, OutputTokens: 20},
	}, nil
}

// --- Wiring helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{Provider: "anthropic"},
		Anthropic:  config.AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
		Pipeline:   config.PipelineConfig{MaxWorkers: 2},
		Fetch: config.FetchConfig{
			UserAgent:   "test-agent",
			TimeoutSecs: 5,
			MaxRetries:  1,
			HostRPS:     100,
		},
	}
}

func newTestPipeline(t *testing.T, open docbackend.OpenFunc, agg Aggregator) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), open, &fakeAnalyzer{}, &fakeSelector{}, agg)
	require.NoError(t, err)
	return p
}

// writePDF drops a placeholder file; the fake backend never reads it.
func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}
