package report

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/model"
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// sanitizeDocID makes a document id safe as a directory name.
func sanitizeDocID(id string) string {
	safe := unsafeIDChars.ReplaceAllString(id, "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	if safe == "" {
		return "document"
	}
	return safe
}

// writeAssets stores the image bytes of every selected resource next to
// the report, under <report-basename>_assets/<doc-id>/, and records the
// report-relative path back into the resource. Only selected resources
// are written: figures carrying image data, and tables whose rendered
// region is the authoritative representation. A failed write loses that
// one asset, not the report.
func writeAssets(outPath string, analyses []*model.DocumentAnalysis) {
	outDir := filepath.Dir(outPath)
	base := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	assetsRoot := base + "_assets"

	for _, an := range analyses {
		sel := an.Resources
		if sel.IsEmpty() {
			continue
		}
		docDir := sanitizeDocID(an.Document.ID)

		for _, id := range sel.FigureIDs {
			fig, ok := an.Document.Figure(id)
			if !ok || len(fig.Image) == 0 {
				continue
			}
			rel, err := writeAsset(outDir, assetsRoot, docDir, fig.ID+".png", fig.Image)
			if err != nil {
				zap.L().Warn("report: write figure asset failed",
					zap.String("document", an.Document.ID),
					zap.String("figure", fig.ID),
					zap.Error(err))
				continue
			}
			fig.ImagePath = rel
		}

		for _, id := range sel.TableIDs {
			tbl, ok := an.Document.Table(id)
			if !ok || tbl.Fidelity != model.FidelityScreenshotFallback || len(tbl.Image) == 0 {
				continue
			}
			rel, err := writeAsset(outDir, assetsRoot, docDir, tbl.ID+".png", tbl.Image)
			if err != nil {
				zap.L().Warn("report: write table asset failed",
					zap.String("document", an.Document.ID),
					zap.String("table", tbl.ID),
					zap.Error(err))
				continue
			}
			tbl.ImagePath = rel
		}
	}
}

// writeAsset writes one image file and returns its path relative to the
// report, always with forward slashes so markdown links stay portable.
func writeAsset(outDir, assetsRoot, docDir, name string, data []byte) (string, error) {
	dir := filepath.Join(outDir, assetsRoot, docDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrap(err, "report: create assets dir")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", eris.Wrap(err, "report: write asset")
	}
	return path.Join(assetsRoot, docDir, name), nil
}
