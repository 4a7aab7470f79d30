// Package server exposes the risk engine over HTTP: route analysis, quick
// distance-based recommendation, model introspection, health, and dataset
// reload.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/vampbrain/SafeSteps/internal/risk"
)

// serviceName appears in health responses and logs.
const serviceName = "safesteps-risk-api"

// ReloadFunc rebuilds an engine from the configured hotspot source. Called
// by POST /reload; the new engine is swapped in atomically.
type ReloadFunc func(ctx context.Context) (*risk.Engine, error)

// Options configure a Server.
type Options struct {
	AllowedOrigins []string
	RatePerSecond  float64
	RateBurst      int
	Weights        risk.FallbackWeights
	Reload         ReloadFunc
	// Now is the clock used to default travel_hour; nil means time.Now.
	Now func() time.Time
}

// Server handles the HTTP API.
type Server struct {
	provider *risk.Provider
	weights  risk.FallbackWeights
	reload   ReloadFunc
	limiter  *rate.Limiter
	origins  []string
	now      func() time.Time
}

// New builds a Server around an engine provider.
func New(provider *risk.Provider, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Weights == (risk.FallbackWeights{}) {
		opts.Weights = risk.DefaultFallbackWeights
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.RateBurst < 1 {
		opts.RateBurst = 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	return &Server{
		provider: provider,
		weights:  opts.Weights,
		reload:   opts.Reload,
		limiter:  rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst),
		origins:  opts.AllowedOrigins,
		now:      opts.Now,
	}
}

// Router assembles the chi router with middleware and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(logMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/model_info", s.handleModelInfo)
	r.Post("/analyze_routes", s.handleAnalyzeRoutes)
	r.Post("/quick_analysis", s.handleQuickAnalysis)
	r.Post("/reload", s.handleReload)

	return r
}
