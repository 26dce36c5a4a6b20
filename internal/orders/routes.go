package orders

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Post("/", h.Create)
	r.Get("/live", h.Live)
	r.Get("/{id}", h.Detail)
	r.Post("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/invoice", h.Invoice)
	r.Get("/{id}/ticket", h.Ticket)
}
