package businesses

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Settings)
	r.Post("/", h.UpdateProfile)
	r.Get("/afip", h.AFIP)
	r.Post("/afip", h.UpdateAFIP)
}
