package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/fetcher"
	"github.com/quillsoft/paperscope/internal/model"
)

// Resolved is the outcome of input resolution: local paths ready for
// extraction, plus the temp dir holding any downloads. WorkDir is ""
// when nothing was fetched; the caller owns its cleanup.
type Resolved struct {
	Paths    []string
	WorkDir  string
	Failures []model.DocumentFailure
}

// ResolvePhase expands the raw inputs into local document paths. Files
// pass through, directories contribute their *.pdf entries in sorted
// order, and remote URLs are downloaded into a shared temp dir. An
// input that cannot be resolved is recorded as a failure, never fatal.
func ResolvePhase(ctx context.Context, inputs []string, fetch *fetcher.Client) Resolved {
	var res Resolved

	fail := func(input, reason string, transient bool) {
		zap.L().Warn("pipeline: input not resolvable",
			zap.String("input", input),
			zap.String("reason", reason))
		res.Failures = append(res.Failures, model.DocumentFailure{
			SourcePath: input,
			Stage:      "resolve",
			Reason:     reason,
			Transient:  transient,
		})
	}

	for _, input := range inputs {
		if fetcher.IsRemote(input) {
			localPath, err := downloadInput(ctx, input, &res.WorkDir, fetch)
			if err != nil {
				fail(input, err.Error(), true)
				continue
			}
			res.Paths = append(res.Paths, localPath)
			continue
		}

		info, err := os.Stat(input)
		switch {
		case err != nil:
			fail(input, err.Error(), false)
		case info.IsDir():
			matches, globErr := filepath.Glob(filepath.Join(input, "*.pdf"))
			if globErr != nil {
				fail(input, globErr.Error(), false)
				continue
			}
			if len(matches) == 0 {
				fail(input, "no pdf files in directory", false)
				continue
			}
			sort.Strings(matches)
			res.Paths = append(res.Paths, matches...)
		default:
			res.Paths = append(res.Paths, input)
		}
	}

	return res
}

// downloadInput fetches one remote document, creating the shared work
// dir on first use.
func downloadInput(ctx context.Context, rawURL string, workDir *string, fetch *fetcher.Client) (string, error) {
	f, err := fetch.ForURL(rawURL)
	if err != nil {
		return "", err
	}

	if *workDir == "" {
		dir, mkErr := os.MkdirTemp("", "paperscope-*")
		if mkErr != nil {
			return "", mkErr
		}
		*workDir = dir
	}

	dest := uniquePath(*workDir, remoteFileName(rawURL))
	n, err := f.DownloadToFile(ctx, rawURL, dest)
	if err != nil {
		return "", err
	}

	zap.L().Info("pipeline: downloaded document",
		zap.String("url", rawURL),
		zap.String("path", dest),
		zap.Int64("bytes", n))
	return dest, nil
}

// remoteFileName derives a local file name, and thereby the document
// id, from the URL path.
func remoteFileName(rawURL string) string {
	name := "document.pdf"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// uniquePath suffixes the name until it stops colliding with an
// earlier download.
func uniquePath(dir, name string) string {
	dest := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}
