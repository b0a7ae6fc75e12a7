package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Server serves generated reports and their image assets for browser
// preview. It is a plain file server over the output directory with a
// health endpoint; rendering already happened on disk.
type Server struct {
	dir string
	srv *http.Server
}

// NewServer builds the preview server for one output directory.
func NewServer(dir string, port int) *Server {
	r := chi.NewRouter()
	// Local tooling (editors, notebook previews) fetches assets cross
	// origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/*", http.FileServer(http.Dir(dir)))

	return &Server{
		dir: dir,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("report: serving reports",
		zap.String("addr", s.srv.Addr),
		zap.String("dir", s.dir))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "report: server listen")
	}
	return nil
}

// Shutdown stops the server, letting in-flight requests drain.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
