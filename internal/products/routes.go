package products

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}", h.Update)
	r.Post("/{id}/availability", h.Availability)
	r.Post("/{id}/delete", h.Delete)
}
