// Package api is the HTTP front of the authoritative transaction store.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Veraticus/reckless-spender/internal/api/middleware"
)

// Config holds router configuration.
type Config struct {
	Logger         *slog.Logger
	Handler        *Handler
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter creates the store's HTTP router.
func NewRouter(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(rate.Limit(100), 20)
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(origins))
	r.Use(limiter.Middleware)

	h := cfg.Handler
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Put("/{id}", h.UpdateTransaction)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.CreateCategory)
	})

	r.Post("/upload/ofx", h.UploadOFX)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondWithDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}
