// Package handlers provides the HTTP surface: health, video metadata
// lookup, and the audio transform endpoint.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/latoulicious/transpose/internal/config"
	"github.com/latoulicious/transpose/internal/log"
	"github.com/latoulicious/transpose/pkg/pipeline"
)

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	manager   *pipeline.Manager
	fetcher   pipeline.Fetcher
	startTime time.Time
	logger    zerolog.Logger
}

// NewServer wires the HTTP layer. The fetcher is passed separately from
// the manager because the metadata endpoint talks to it directly,
// without spinning up a pipeline session.
func NewServer(cfg *config.Config, manager *pipeline.Manager, fetcher pipeline.Fetcher) *Server {
	return &Server{
		cfg:       cfg,
		manager:   manager,
		fetcher:   fetcher,
		startTime: time.Now(),
		logger:    log.WithComponent("http"),
	}
}

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins()))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/video-info/{id}", s.handleVideoInfo)
		r.Post("/process-audio", s.handleProcessAudio)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// corsMiddleware sets CORS headers against a strict origin allow-list
// and short-circuits preflight requests.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
