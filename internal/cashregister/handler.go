package cashregister

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const pagePath = "/dashboard/cash-register"

// Handler serves the cash register page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	render  *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, render *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, render: render}
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	data := map[string]any{}

	current, err := h.service.Current(r.Context(), businessID)
	switch {
	case err == nil:
		sum, err := h.service.Summarize(r.Context(), businessID, current.ID)
		if err != nil {
			h.logger.Error("summarize register failed", slog.Any("error", err))
		}
		data["Current"] = current
		data["Summary"] = sum
	case !errors.Is(err, ErrNoOpenRegister):
		h.logger.Error("load register failed", slog.Any("error", err))
		http.Error(w, "No se pudo cargar la caja", http.StatusInternalServerError)
		return
	}

	history, err := h.service.History(r.Context(), businessID, 20)
	if err != nil {
		h.logger.Error("register history failed", slog.Any("error", err))
	}
	data["History"] = history
	h.render.Page(w, r, http.StatusOK, "cash_register", "Caja", data)
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	initial, err := products.ParsePrice(r.PostFormValue("initial_amount"))
	if err != nil {
		h.render.Redirect(w, r, pagePath, "error", "Monto inválido")
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	user, _ := shared.PrincipalFromContext(r.Context())
	_, err = h.service.Open(r.Context(), businessID, user.UserID, OpenInput{
		InitialAmount: initial,
		Notes:         r.PostFormValue("notes"),
	})
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, pagePath, "error", msg)
		return
	}
	switch {
	case errors.Is(err, ErrRegisterAlreadyOpen):
		h.render.Redirect(w, r, pagePath, "error", "Ya hay una caja abierta")
	case err != nil:
		h.render.Fail(w, r, pagePath, "No se pudo abrir la caja", err)
	default:
		h.render.Redirect(w, r, pagePath, "success", "Caja abierta")
	}
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	actual, err := products.ParsePrice(r.PostFormValue("actual_amount"))
	if err != nil {
		h.render.Redirect(w, r, pagePath, "error", "Monto inválido")
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	user, _ := shared.PrincipalFromContext(r.Context())
	closed, err := h.service.Close(r.Context(), businessID, user.UserID, CloseInput{
		ActualAmount: actual,
		Notes:        r.PostFormValue("notes"),
	})
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, pagePath, "error", msg)
		return
	}
	switch {
	case errors.Is(err, ErrNoOpenRegister):
		h.render.Redirect(w, r, pagePath, "error", "No hay una caja abierta")
	case err != nil:
		h.render.Fail(w, r, pagePath, "No se pudo cerrar la caja", err)
	default:
		h.render.Redirect(w, r, pagePath, "success",
			fmt.Sprintf("Caja cerrada. Diferencia: %s", view.FormatMoney(closed.Difference())))
	}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	id := chi.URLParam(r, "id")
	reg, err := h.service.Get(r.Context(), businessID, id)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("load register failed", slog.Any("error", err))
		http.Error(w, "No se pudo exportar la caja", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), businessID, id, &buf); err != nil {
		h.logger.Error("export register failed", slog.Any("error", err))
		http.Error(w, "No se pudo exportar la caja", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportName(reg)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
