// Package fetcher downloads remote documents referenced on the command line
// so the rest of the pipeline can treat every input as a local file. It speaks
// HTTP(S) and FTP, rate-limits per host, and retries transient failures.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/quillsoft/paperscope/internal/config"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Client holds one fetcher per supported scheme. A single Client should be
// shared across a run so per-host rate limiter state carries over between
// downloads.
type Client struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// New builds a Client from the fetch configuration.
func New(cfg config.FetchConfig) *Client {
	return &Client{
		http: NewHTTPFetcher(HTTPOptionsFromConfig(cfg)),
		ftp:  NewFTPFetcher(FTPOptionsFromConfig(cfg)),
	}
}

// ForURL returns the fetcher that handles the URL's scheme.
func (c *Client) ForURL(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parse url %q", rawURL)
	}
	switch u.Scheme {
	case "http", "https":
		return c.http, nil
	case "ftp":
		return c.ftp, nil
	default:
		return nil, eris.Errorf("unsupported url scheme %q in %q", u.Scheme, rawURL)
	}
}

// IsRemote reports whether the input string is a downloadable URL rather
// than a local path.
func IsRemote(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return u.Host != ""
	default:
		return false
	}
}
