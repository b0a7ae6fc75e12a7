package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
	"github.com/quillsoft/paperscope/internal/structure"
)

// ExtractPhase runs structural extraction and fidelity resolution over
// every path, workers at a time. A document whose backend fails to
// open or parse is recorded and excluded; the phase itself never fails
// on one document's account. Returned documents keep input order and
// are immutable from here on.
func ExtractPhase(ctx context.Context, paths []string, open docbackend.OpenFunc, extractor *structure.Extractor, resolver *structure.Resolver, workers int) ([]*model.Document, []model.DocumentFailure) {
	slots := make([]*model.Document, len(paths))
	var mu sync.Mutex
	var failures []model.DocumentFailure

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, docPath := range paths {
		g.Go(func() error {
			doc, err := extractOne(gctx, docPath, open, extractor, resolver)
			if err != nil {
				zap.L().Warn("pipeline: document excluded",
					zap.String("path", docPath),
					zap.Error(err))
				mu.Lock()
				failures = append(failures, model.DocumentFailure{
					SourcePath: docPath,
					Stage:      "extract",
					Reason:     err.Error(),
				})
				mu.Unlock()
				return nil // Don't fail the group on individual documents.
			}
			slots[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	docs := make([]*model.Document, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			docs = append(docs, d)
		}
	}
	return docs, failures
}

func extractOne(ctx context.Context, path string, open docbackend.OpenFunc, extractor *structure.Extractor, resolver *structure.Resolver) (*model.Document, error) {
	b, err := open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer b.Close() //nolint:errcheck

	doc, err := extractor.Extract(ctx, b, path)
	if err != nil {
		return nil, err
	}
	if err := resolver.Resolve(ctx, b, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
