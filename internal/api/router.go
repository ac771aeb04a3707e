package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/assetstore"
	"github.com/starford/ansuz/internal/notestore"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth and
// tenant groups.
func NewRouter(notes *notestore.Store, assets *assetstore.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(notes, assets)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Identifier decoding needs no tenant.
	r.Get("/resolve", h.DecodeIdentifier)

	r.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Get("/notes/*", h.GetNote)
		r.Put("/notes/*", h.SaveNote)
		r.Post("/notes/*", h.CreateNote)
		r.Delete("/notes/*", h.DeleteNote)

		// Assets CRUD.
		r.Get("/assets", h.ListAssets)
		r.Get("/assets/*", h.GetAsset)
		r.Put("/assets/*", h.SaveAsset)
		r.Delete("/assets/*", h.DeleteAsset)

		// SSE change feed.
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
