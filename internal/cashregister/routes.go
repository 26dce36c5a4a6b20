package cashregister

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Page)
	r.Post("/open", h.Open)
	r.Post("/close", h.Close)
	r.Get("/{id}/export", h.Export)
}
