package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/micro-nova/nowplaying/internal/auth"
	"github.com/micro-nova/nowplaying/internal/metrics"
)

// Options carries the optional parts of the router.
type Options struct {
	Guard    *auth.Guard      // nil leaves the API open
	Metrics  *metrics.Metrics // nil disables /metrics and request counting
	OnScrape func()           // refreshes sampled gauges before a scrape
}

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, bus EventBus, opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)
	r.Use(metrics.RequestMiddleware(opts.Metrics))

	h := &Handlers{ctrl: ctrl, events: bus}

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler(opts.OnScrape))
	}

	r.Group(func(r chi.Router) {
		r.Use(opts.Guard.Middleware)

		// Read side
		r.Get("/api", h.getView)
		r.Get("/api/", h.getView)
		r.Get("/api/players", h.getPlayers)
		r.Get("/api/art", h.getArt)

		// User intents
		r.Post("/api/intent/{intent}", h.postIntent)
		r.Put("/api/volume", h.putVolume)
		r.Post("/api/refresh", h.postRefresh)

		// Player configuration
		r.Put("/api/selected", h.putSelected)
		r.Patch("/api/config", h.patchConfig)
		r.Put("/api/players/{identity}/enabled", h.putPlayerEnabled)

		// SSE
		r.Get("/api/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
