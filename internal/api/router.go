package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vaultql/internal/noteservice"
)

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	queryRate  float64
	queryBurst int
}

// WithQueryRate limits POST /query to perSecond requests with burst.
func WithQueryRate(perSecond float64, burst int) RouterOption {
	return func(o *routerOptions) {
		o.queryRate = perSecond
		o.queryBurst = burst
	}
}

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events behind the same auth.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, opts ...RouterOption) chi.Router {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)
	r.With(QueryLimit(o.queryRate, o.queryBurst)).Post("/query", h.Query)
	r.Get("/schema", h.Schema)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
