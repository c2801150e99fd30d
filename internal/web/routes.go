package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vfiala/photo-inspector/internal/web/handlers"
	"github.com/vfiala/photo-inspector/internal/web/static"
)

func (s *Server) setupRoutes() {
	runsHandler := handlers.NewRunsHandler(s.config, s.store)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Runs (long-running operations)
		r.Post("/runs", runsHandler.Start)
		r.Get("/runs/current", runsHandler.Current)
		r.Get("/runs/{runId}", runsHandler.Status)
		r.Delete("/runs/{runId}", runsHandler.Cancel)
		r.Get("/runs/{runId}/events", runsHandler.Events)
		r.Get("/runs/{runId}/clusters", runsHandler.Clusters)
		r.Put("/runs/{runId}/clusters/{clusterId}/selection", runsHandler.Selection)
		r.Get("/runs/{runId}/errors", runsHandler.Errors)
		r.Post("/runs/{runId}/export", runsHandler.Export)
		r.Get("/runs/{runId}/image", runsHandler.Image)

		// Config
		r.Get("/config", configHandler.Get)
	})

	// Serve static files for frontend (SPA)
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the single-page application.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := fs.Open(path)
	if err == nil {
		defer f.Close()

		stat, err := f.Stat()
		if err == nil && !stat.IsDir() {
			w.Header().Set("Content-Type", contentTypeFor(path))
			if strings.HasPrefix(path, "/assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			w.WriteHeader(http.StatusOK)
			io.Copy(w, f)
			return
		}
	}

	// SPA routing: unknown non-asset paths get index.html.
	if !strings.HasPrefix(path, "/assets/") {
		indexFile, err := fs.Open("/index.html")
		if err == nil {
			defer indexFile.Close()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			io.Copy(w, indexFile)
			return
		}
	}

	http.NotFound(w, r)
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".html"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(path, ".css"):
		return "text/css; charset=utf-8"
	case strings.HasSuffix(path, ".js"):
		return "application/javascript; charset=utf-8"
	case strings.HasSuffix(path, ".json"):
		return "application/json"
	case strings.HasSuffix(path, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".ico"):
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
