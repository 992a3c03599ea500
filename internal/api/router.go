// Package api exposes the resolver over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/boq-resolver/internal/metrics"
	"github.com/sells-group/boq-resolver/internal/pipeline"
	"github.com/sells-group/boq-resolver/internal/store"
)

// defaultMaxBodyBytes bounds request bodies when Options sets no limit.
const defaultMaxBodyBytes = 32 << 20

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	// SaveRuns is the default for resolve requests that omit "save".
	SaveRuns       bool
}

// Server holds the handler dependencies. Store and Metrics may be nil.
type Server struct {
	pipeline *pipeline.Pipeline
	store    store.Store
	metrics  *metrics.Metrics
	maxBody  int64
	saveRuns bool
}

// NewRouter builds the route tree.
func NewRouter(p *pipeline.Pipeline, st store.Store, m *metrics.Metrics, opts Options) http.Handler {
	s := &Server{pipeline: p, store: st, metrics: m, maxBody: opts.MaxBodyBytes, saveRuns: opts.SaveRuns}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(requestLogger([]string{"/health", "/metrics"}))

	r.Get("/health", s.health)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route("/v1", func(api chi.Router) {
		api.Post("/resolve", s.resolve)
		api.Get("/jurisdictions", s.jurisdictions)

		api.Route("/runs", func(rr chi.Router) {
			rr.Get("/", s.listRuns)
			rr.Get("/{runID}", s.getRun)
		})
	})

	return r
}
