package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher(maxRetries int) *HTTPFetcher {
	f := NewHTTPFetcher(HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
		HostRPS:    100,
	})
	f.backoffBase = time.Millisecond
	return f
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	body, err := f.Download(context.Background(), srv.URL+"/paper.pdf")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	_, err := f.Download(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestDownloadToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file content here"))
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	path := filepath.Join(t.TempDir(), "out.pdf")

	n, err := f.DownloadToFile(context.Background(), srv.URL+"/file.pdf", path)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file content here", string(data))
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("success"))
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	body, err := f.Download(context.Background(), srv.URL+"/retry")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "success", string(data))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(2)
	_, err := f.Download(context.Background(), srv.URL+"/fail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestRateLimitHalvesOn429(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(3)
	body, err := f.Download(context.Background(), srv.URL+"/limited")
	require.NoError(t, err)
	body.Close()

	assert.Equal(t, int32(2), attempts.Load())

	// The 429 halved the host's rate before the successful retry nudged it
	// back up, so it must still sit below the starting budget.
	lim := f.limiterFor(srv.URL + "/limited")
	assert.Less(t, float64(lim.Limit()), 100.0)
}

func TestLimiterFor_ReusedPerHost(t *testing.T) {
	f := newTestFetcher(1)

	a := f.limiterFor("http://arxiv.example.org/abs/2401.00001")
	b := f.limiterFor("http://arxiv.example.org/pdf/2401.00002.pdf")
	c := f.limiterFor("http://mirror.example.net/pdf/2401.00001.pdf")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestRateLimiting(t *testing.T) {
	var reqTimes []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTimes = append(reqTimes, time.Now())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		HostRPS:    2,
	})
	f.backoffBase = time.Millisecond

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		body, err := f.Download(ctx, srv.URL+"/limited")
		require.NoError(t, err)
		body.Close()
	}

	// With 2 req/s and a burst of 2, the third request has to wait.
	require.GreaterOrEqual(t, len(reqTimes), 3)
	duration := reqTimes[len(reqTimes)-1].Sub(reqTimes[0])
	assert.GreaterOrEqual(t, duration.Milliseconds(), int64(200), "requests should be rate limited")
}

func TestAdaptiveLimiter(t *testing.T) {
	lim := NewAdaptiveLimiter(rate.Limit(10), 10)

	lim.OnSuccess()
	assert.InDelta(t, 12.0, float64(lim.Limit()), 0.001)

	for i := 0; i < 10; i++ {
		lim.OnSuccess()
	}
	assert.InDelta(t, 20.0, float64(lim.Limit()), 0.001, "growth caps at 2x initial")

	lim.OnRateLimit()
	assert.InDelta(t, 10.0, float64(lim.Limit()), 0.001)

	for i := 0; i < 10; i++ {
		lim.OnRateLimit()
	}
	assert.InDelta(t, 2.5, float64(lim.Limit()), 0.001, "decay floors at initial/4")
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(1)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.Download(ctx, srv.URL+"/dead.pdf")
		require.Error(t, err)
	}
	hits := attempts.Load()

	// Five exhausted downloads opened the host's circuit. The next one
	// is rejected without touching the server.
	_, err := f.Download(ctx, srv.URL+"/dead.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, hits, attempts.Load())
}

func TestCircuitIgnoresTerminalStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// A host that answers, even with 404s, is healthy. The circuit must
	// stay closed well past the failure threshold.
	f := newTestFetcher(1)
	for i := 0; i < 8; i++ {
		_, err := f.Download(context.Background(), srv.URL+"/missing.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 404")
	}
}

func TestBackoffHonorsContext(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{MaxRetries: 1})
	f.backoffBase = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	f.backoff(ctx, 0)
	assert.Less(t, time.Since(start), time.Second)
}
