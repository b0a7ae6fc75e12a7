package structure

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/config"
	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

const (
	defaultFallbackDPI = 200
	defaultMaxRowGap   = 30.0
	defaultRegionPad   = 5.0

	// alignSlack widens the table's horizontal span when deciding
	// whether a nearby line still belongs to its column block.
	alignSlack = 20.0

	// headSlack admits lines starting slightly above the detected
	// header row.
	headSlack = 10.0
)

// blockStartRe marks the beginning of the next float or section, where
// region growth must stop.
var blockStartRe = regexp.MustCompile(`(?i)^(table|figure|section)\b`)

// Resolver applies the table-fidelity policy. A detected table whose
// native extraction yielded at most one row almost always means the
// body defeated text extraction, so the resolver re-captures the table
// as a page-region screenshot instead of trusting the rows.
type Resolver struct {
	dpi      int
	maxGap   float64
	pad      float64
	patterns *Patterns
}

func NewResolver(cfg config.ExtractConfig, patterns *Patterns) *Resolver {
	r := &Resolver{
		dpi:      cfg.FallbackDPI,
		maxGap:   cfg.MaxRowGap,
		pad:      cfg.RegionPad,
		patterns: patterns,
	}
	if r.dpi <= 0 {
		r.dpi = defaultFallbackDPI
	}
	if r.maxGap <= 0 {
		r.maxGap = defaultMaxRowGap
	}
	if r.pad <= 0 {
		r.pad = defaultRegionPad
	}
	if r.patterns == nil {
		r.patterns = DefaultPatterns()
	}
	return r
}

// Resolve finalizes every table's fidelity in place. It is the last
// mutation the document sees before analysis, and running it again is a
// no-op: decided tables are never re-rendered. The only error is a
// cancelled context.
func (r *Resolver) Resolve(ctx context.Context, b docbackend.Backend, doc *model.Document) error {
	for i := range doc.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.resolveTable(ctx, b, doc, &doc.Tables[i])
	}
	return nil
}

func (r *Resolver) resolveTable(ctx context.Context, b docbackend.Backend, doc *model.Document, t *model.Table) {
	if t.Fidelity == model.FidelityScreenshotFallback {
		return
	}
	if t.RowCount() >= 2 {
		// Extraction produced a body; the rows are trusted as-is.
		return
	}
	if t.Region.IsZero() {
		zap.L().Warn("table has no geometry, keeping extracted rows",
			zap.String("doc", doc.ID),
			zap.String("table", t.ID))
		return
	}

	region := r.expand(b, t.Region)
	region = region.Pad(r.pad)
	if w, h, err := b.PageSize(t.Region.Page); err == nil {
		region = region.Clamp(w, h)
	}

	png, err := b.RenderRegion(ctx, region, r.dpi)
	if err != nil || len(png) == 0 {
		// A fallback without a payload would claim an image that does
		// not exist, so the table keeps its text fidelity.
		zap.L().Warn("table screenshot failed, keeping text fidelity",
			zap.String("doc", doc.ID),
			zap.String("table", t.ID),
			zap.Int("page", t.Region.Page),
			zap.Error(err))
		return
	}

	t.Image = png
	t.Region = region
	t.Fidelity = model.FidelityScreenshotFallback
	zap.L().Debug("table re-captured as screenshot",
		zap.String("doc", doc.ID),
		zap.String("table", t.ID),
		zap.Int("rows_extracted", t.RowCount()),
		zap.Int("dpi", r.dpi))
}

// expand grows the detected header region downward over the rows text
// extraction missed. Lines are kept while they overlap the table's
// column span and follow within maxGap points; growth stops at the
// first large gap, at a caption for the next float, or at a section
// header.
func (r *Resolver) expand(b docbackend.Backend, region model.Region) model.Region {
	lines, err := b.PageLines(region.Page)
	if err != nil {
		return region
	}

	left := region.X - alignSlack
	right := region.X + region.W + alignSlack

	var rows []docbackend.Line
	for _, ln := range lines {
		if ln.Region.Y < region.Y-headSlack {
			continue
		}
		if ln.Region.X > right || ln.Region.X+ln.Region.W < left {
			continue
		}
		rows = append(rows, ln)
	}
	if len(rows) == 0 {
		return region
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Region.Y < rows[j].Region.Y })

	bottom := rows[0].Region.Y + rows[0].Region.H
	for _, ln := range rows[1:] {
		if ln.Region.Y-bottom > r.maxGap {
			break
		}
		text := strings.TrimSpace(ln.Text)
		if blockStartRe.MatchString(text) {
			break
		}
		if len(strings.Fields(text)) <= maxHeaderWords {
			if _, ok := r.patterns.Match(text); ok {
				break
			}
		}
		if end := ln.Region.Y + ln.Region.H; end > bottom {
			bottom = end
		}
	}

	if bottom > region.Y+region.H {
		region.H = bottom - region.Y
	}
	return region
}
