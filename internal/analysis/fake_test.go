package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
)

// fakeProvider answers by prompt marker: the first reply whose key
// appears in the prompt wins. Every reply costs 10 input and 5 output
// tokens so usage aggregation is checkable.
type fakeProvider struct {
	mu      sync.Mutex
	replies []fakeReply
	err     error
	calls   []gateway.Request
}

type fakeReply struct {
	marker string
	raw    string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req gateway.Request) (*gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.replies {
		if strings.Contains(req.Prompt, r.marker) {
			return &gateway.Result{
				Raw:   r.raw,
				Usage: model.TokenUsage{InputTokens: 10, OutputTokens: 5},
			}, nil
		}
	}
	return &gateway.Result{
		Raw:   "{}",
		Usage: model.TokenUsage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testGateway wraps a provider with a single-attempt budget so failure
// tests do not sleep through backoff.
func testGateway(p gateway.Provider) *gateway.Gateway {
	return gateway.New(p, config.GenerationConfig{
		MaxRetries:  1,
		TimeoutSecs: 5,
		MaxTokens:   1024,
		Temperature: 0.3,
	})
}

// analysisDoc is a document with enough structure to feed every
// dimension.
func analysisDoc() *model.Document {
	return &model.Document{
		ID:       "paper1",
		Title:    "Sparse Expert Routing at Scale",
		Abstract: "We study sparse expert routing for large models.",
		Sections: []model.Section{
			{Name: "1 Introduction", Kind: model.KindIntroduction, Class: model.SectionClassBackground,
				Content: "Dense scaling is expensive."},
			{Name: "2 Related Work", Kind: model.KindRelatedWork, Class: model.SectionClassBackground,
				Content: "Prior systems explored conditional computation."},
			{Name: "3 Method", Kind: model.KindMethod, Class: model.SectionClassTechnology,
				Content: "We route tokens to experts.\n\nThe model uses a mixture-of-experts architecture with 64 experts."},
			{Name: "4 Experiments", Kind: model.KindExperiment, Class: model.SectionClassExperiment,
				Content: "We train on C4 and evaluate on GLUE."},
			{Name: "5 Results", Kind: model.KindResult, Class: model.SectionClassResult,
				Content: "Routing beats dense baselines."},
			{Name: "6 Conclusion", Kind: model.KindConclusion, Class: model.SectionClassResult,
				Content: "Sparsity scales."},
		},
		Figures: []model.Figure{
			{ID: "fig_1", Page: 1, Caption: "Figure 1: Router."},
			{ID: "fig_2", Page: 2, Caption: "Figure 2: Loss curves."},
		},
		Tables: []model.Table{
			{ID: "table_1", Page: 3, Caption: "Table 1: GLUE scores."},
		},
		Equations: []model.Equation{
			{ID: "eq_1", Page: 2, Text: "g = softmax(W x)", Number: "(1)"},
			{ID: "eq_2", Page: 2, Text: "y = sum_i g_i E_i(x)", Number: "(2)"},
		},
		FullText: "full text of the routing paper",
		Pages:    9,
	}
}
