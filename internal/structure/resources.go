package structure

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/model"
)

var (
	tableCaptionRe  = regexp.MustCompile(`(?i)^table\s+\d+`)
	figureCaptionRe = regexp.MustCompile(`(?i)^fig(?:ure)?\.?\s*\d+`)
)

// captionProximity is how far, in points, a caption line may sit from a
// table's edge and still be claimed by it.
const captionProximity = 40.0

// maxCaptionRunes truncates runaway captions, which usually means the
// paragraph after the real caption got glued on.
const maxCaptionRunes = 200

// collectTables gathers detected tables across all pages, in reading
// order, with ids table_1..table_n. Every table starts text-reliable;
// the fidelity resolver may downgrade it later.
func collectTables(b docbackend.Backend, pages []pageData) []model.Table {
	var out []model.Table
	for _, pd := range pages {
		cands, err := b.PageTables(pd.page)
		if err != nil {
			zap.L().Warn("table detection failed",
				zap.Int("page", pd.page), zap.Error(err))
			continue
		}
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].Region.Y < cands[j].Region.Y
		})
		for _, c := range cands {
			rows := make([][]string, len(c.Rows))
			for i, row := range c.Rows {
				cells := make([]string, len(row))
				for j, cell := range row {
					cells[j] = Normalize(cell)
				}
				rows[i] = cells
			}
			out = append(out, model.Table{
				ID:       fmt.Sprintf("table_%d", len(out)+1),
				Page:     pd.page,
				Caption:  captionNear(pd.lines, c.Region, tableCaptionRe),
				Rows:     rows,
				Region:   c.Region,
				Fidelity: model.FidelityTextReliable,
			})
		}
	}
	return out
}

// collectFigures gathers embedded raster images with ids fig_1..fig_n.
// The source format does not record where on the page an image is
// placed, so captions are matched to images by page order and regions
// carry only the page number.
func collectFigures(b docbackend.Backend, pages []pageData) []model.Figure {
	var out []model.Figure
	for _, pd := range pages {
		imgs, err := b.PageImages(pd.page)
		if err != nil {
			zap.L().Warn("image extraction failed",
				zap.Int("page", pd.page), zap.Error(err))
			continue
		}
		if len(imgs) == 0 {
			continue
		}
		caps := captionLines(pd.lines, figureCaptionRe)
		for k, img := range imgs {
			caption := ""
			if k < len(caps) {
				caption = truncateCaption(caps[k])
			}
			out = append(out, model.Figure{
				ID:      fmt.Sprintf("fig_%d", len(out)+1),
				Page:    pd.page,
				Caption: caption,
				Region:  model.Region{Page: pd.page},
				Image:   img.PNG,
			})
		}
	}
	return out
}

// captionNear returns the closest caption-looking line within
// captionProximity of the region's top or bottom edge.
func captionNear(lines []docbackend.Line, region model.Region, re *regexp.Regexp) string {
	best := ""
	bestDist := captionProximity + 1
	for _, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if !re.MatchString(text) {
			continue
		}
		var dist float64
		switch {
		case ln.Region.Y+ln.Region.H <= region.Y:
			dist = region.Y - (ln.Region.Y + ln.Region.H)
		case ln.Region.Y >= region.Y+region.H:
			dist = ln.Region.Y - (region.Y + region.H)
		}
		if dist <= captionProximity && dist < bestDist {
			best = text
			bestDist = dist
		}
	}
	return truncateCaption(best)
}

// captionLines returns caption-looking lines in top-to-bottom order.
func captionLines(lines []docbackend.Line, re *regexp.Regexp) []string {
	var out []string
	for _, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if re.MatchString(text) {
			out = append(out, text)
		}
	}
	return out
}

func truncateCaption(s string) string {
	s = collapseWS(s)
	runes := []rune(s)
	if len(runes) > maxCaptionRunes {
		return string(runes[:maxCaptionRunes-3]) + "..."
	}
	return s
}
