// Package docbackend provides page-level access to PDF documents: text,
// positioned lines, natively extracted tables, embedded images, and
// region rendering. Structural extraction consumes documents exclusively
// through the Backend interface, so its logic stays independent of the
// parsing library underneath.
//
// Pages are numbered from 1. All coordinates are page points with a
// top-left origin; the conversion from PDF bottom-origin space happens
// once, inside the adapter.
package docbackend

import (
	"context"

	"github.com/quillsoft/paperscope/internal/model"
)

// Line is one detected text line with its position.
type Line struct {
	Text     string
	Region   model.Region
	FontSize float64
	Centered bool
}

// TableCandidate is a natively extracted table grid. Rows may be empty
// or header-only; deciding what to do about that is the caller's job.
type TableCandidate struct {
	Rows   [][]string
	Region model.Region
}

// PageImage is an embedded raster image, re-encoded as PNG. The source
// format does not track placement for embedded images, so only the
// pixel dimensions are known.
type PageImage struct {
	Name   string
	Width  int
	Height int
	PNG    []byte
}

// Backend is the read surface over one open document.
//
// A Backend is not safe for concurrent use; the pipeline gives each
// document task its own instance.
type Backend interface {
	PageCount() int
	PageSize(page int) (w, h float64, err error)
	PageText(page int) (string, error)
	PageLines(page int) ([]Line, error)
	PageTables(page int) ([]TableCandidate, error)
	PageImages(page int) ([]PageImage, error)

	// MetaTitle and MetaAuthor return document-info entries, or ""
	// when absent.
	MetaTitle() string
	MetaAuthor() string

	// RenderRegion rasterizes one page region to PNG at the given DPI.
	RenderRegion(ctx context.Context, region model.Region, dpi int) ([]byte, error)

	Close() error
}

// OpenFunc opens a document at a filesystem path. The pipeline takes
// one so tests can substitute fakes.
type OpenFunc func(path string) (Backend, error)
