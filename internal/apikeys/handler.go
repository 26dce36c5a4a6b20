package apikeys

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const settingsPath = "/dashboard/settings"

// Handler issues and revokes keys from the settings page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	render  *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, render *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, render: render}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/{id}/revoke", h.Revoke)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	key, err := h.service.Create(r.Context(), businessID, r.PostFormValue("name"))
	if err != nil {
		h.render.Fail(w, r, settingsPath, "No se pudo crear la API key", err)
		return
	}
	h.logger.Info("api key created", slog.String("business_id", businessID), slog.String("key_id", key.ID))
	h.render.Redirect(w, r, settingsPath, "success", "Nueva API key: "+key.Key+" (copiala ahora, no se vuelve a mostrar)")
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	err := h.service.Revoke(r.Context(), businessID, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, settingsPath, "error", "API key no encontrada")
	case err != nil:
		h.render.Fail(w, r, settingsPath, "No se pudo revocar la API key", err)
	default:
		h.render.Redirect(w, r, settingsPath, "success", "API key revocada")
	}
}
