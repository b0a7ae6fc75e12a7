package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/quillsoft/paperscope/internal/model"
)

// AnalyzePhase produces one DocumentAnalysis per document, workers at a
// time. Within a document the dimension analysis and resource selection
// run concurrently; both read the immutable document and write disjoint
// result slots, so the group Wait is the only join. Generation calls
// never fail the phase: a lost call surfaces as an empty finding or an
// empty selection inside the analysis, not as an error.
func AnalyzePhase(ctx context.Context, docs []*model.Document, analyzer Analyzer, selector Selector, workers int) []*model.DocumentAnalysis {
	analyses := make([]*model.DocumentAnalysis, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		g.Go(func() error {
			var an *model.DocumentAnalysis
			var sel model.ResourceSelection
			var selUsage model.TokenUsage

			inner, ictx := errgroup.WithContext(gctx)
			inner.Go(func() error {
				an = analyzer.Analyze(ictx, doc)
				return nil
			})
			inner.Go(func() error {
				sel, selUsage = selector.Select(ictx, doc)
				return nil
			})
			_ = inner.Wait()

			an.Resources = sel
			an.Usage.Add(selUsage)
			analyses[i] = an
			return nil
		})
	}
	_ = g.Wait()

	return analyses
}
