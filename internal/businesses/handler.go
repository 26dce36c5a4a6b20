package businesses

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const (
	settingsPath = "/dashboard/settings"
	afipPath     = "/dashboard/settings/afip"
)

// KeyLister lists the API keys shown on the settings page.
type KeyLister interface {
	List(ctx context.Context, businessID string) ([]apikeys.APIKey, error)
}

// Handler serves the business settings pages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	keys    KeyLister
	render  *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, keys KeyLister, render *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, keys: keys, render: render}
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	business, err := h.service.Get(r.Context(), businessID)
	if err != nil {
		h.logger.Error("load business failed", slog.Any("error", err))
		http.Error(w, "No se pudo cargar el negocio", http.StatusInternalServerError)
		return
	}
	keys, err := h.keys.List(r.Context(), businessID)
	if err != nil {
		h.logger.Error("list api keys failed", slog.Any("error", err))
	}
	h.render.Page(w, r, http.StatusOK, "settings", "Configuración", map[string]any{
		"Business": business,
		"APIKeys":  keys,
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	err := h.service.UpdateProfile(r.Context(), businessID, ProfileInput{
		Name:             r.PostFormValue("name"),
		WebhookURL:       r.PostFormValue("webhook_url"),
		WebhookStatusURL: r.PostFormValue("webhook_status_url"),
		APIKey:           r.PostFormValue("api_key"),
	})
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, settingsPath, "error", msg)
		return
	}
	switch {
	case errors.Is(err, ErrAPIKeyTaken):
		h.render.Redirect(w, r, settingsPath, "error", "Esa API key ya está en uso")
	case err != nil:
		h.render.Fail(w, r, settingsPath, "No se pudo guardar la configuración", err)
	default:
		h.render.Redirect(w, r, settingsPath, "success", "Configuración guardada")
	}
}

func (h *Handler) AFIP(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	business, err := h.service.Get(r.Context(), businessID)
	if err != nil {
		h.logger.Error("load business failed", slog.Any("error", err))
		http.Error(w, "No se pudo cargar el negocio", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, http.StatusOK, "settings_afip", "Facturación AFIP", map[string]any{
		"Business": business,
	})
}

func (h *Handler) UpdateAFIP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	pv, _ := strconv.Atoi(r.PostFormValue("afip_punto_venta"))
	err := h.service.UpdateAFIPSettings(r.Context(), businessID, AFIPSettingsInput{
		CUIT:        r.PostFormValue("afip_cuit"),
		Token:       r.PostFormValue("afip_token"),
		Environment: r.PostFormValue("afip_environment"),
		PuntoVenta:  pv,
		Certificate: r.PostFormValue("afip_certificate"),
		PrivateKey:  r.PostFormValue("afip_private_key"),
	})
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, afipPath, "error", msg)
		return
	}
	if err != nil {
		h.render.Fail(w, r, afipPath, "No se pudo guardar la configuración AFIP", err)
		return
	}
	h.render.Redirect(w, r, afipPath, "success", "Configuración AFIP guardada")
}
