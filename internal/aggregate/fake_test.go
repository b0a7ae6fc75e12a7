package aggregate

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
// tokens so usage propagation is checkable.
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

func (f *fakeProvider) lastCall() gateway.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
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

func finding(docID string, dim model.Dimension, summary string) model.DimensionFinding {
	return model.DimensionFinding{
		DocumentID: docID,
		Dimension:  dim,
		Summary:    summary,
		Confidence: model.ConfidenceFull,
	}
}

// twoAnalyses is a minimal analyzed pair with distinct architectures,
// enough for every aggregation mode.
func twoAnalyses() []*model.DocumentAnalysis {
	resnet := &model.Document{
		ID:       "resnet",
		Title:    "Deep Residual Learning for Image Recognition",
		Authors:  []string{"Kaiming He", "Xiangyu Zhang"},
		Abstract: "We present a residual learning framework to ease the training of substantially deeper networks.",
	}
	vit := &model.Document{
		ID:       "vit",
		Title:    "An Image is Worth 16x16 Words",
		Authors:  []string{"Alexey Dosovitskiy"},
		Abstract: "A pure transformer applied to sequences of image patches performs well on image classification.",
	}
	return []*model.DocumentAnalysis{
		{
			Document: resnet,
			Findings: map[model.Dimension]model.DimensionFinding{
				model.DimensionBackground: finding("resnet", model.DimensionBackground, "Deeper networks degrade with plain stacking."),
				model.DimensionTechnology: finding("resnet", model.DimensionTechnology, "Residual blocks with identity shortcuts."),
				model.DimensionExperiment: finding("resnet", model.DimensionExperiment, "ImageNet and CIFAR-10 classification."),
				model.DimensionResult:     finding("resnet", model.DimensionResult, "3.57% top-5 error on ImageNet."),
			},
			Keywords: []string{"residual learning", "deep networks"},
		},
		{
			Document: vit,
			Findings: map[model.Dimension]model.DimensionFinding{
				model.DimensionBackground: finding("vit", model.DimensionBackground, "CNN inductive biases may limit scaling."),
				model.DimensionTechnology: finding("vit", model.DimensionTechnology, "Transformer over 16x16 image patches."),
				model.DimensionExperiment: finding("vit", model.DimensionExperiment, "JFT-300M pretraining with ImageNet transfer."),
				model.DimensionResult:     finding("vit", model.DimensionResult, "88.55% top-1 accuracy after pretraining."),
			},
			Keywords: []string{"vision transformer"},
		},
	}
}
