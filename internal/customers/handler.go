package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/platform/httpx"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const listPath = "/dashboard/customers"

// Handler serves the customer pages of the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
	render  *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, render *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, render: render}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	page := shared.PageFromQuery(r.URL.Query(), 25)
	filter := ListFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Status: Status(r.URL.Query().Get("status")),
		Limit:  page.PerPage,
		Offset: page.Offset(),
	}
	if !filter.Status.Valid() {
		filter.Status = ""
	}

	list, total, err := h.service.List(r.Context(), businessID, filter)
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los clientes", http.StatusInternalServerError)
		return
	}
	page.Total = total

	h.render.Page(w, r, http.StatusOK, "customers", "Clientes", map[string]any{
		"Customers": list,
		"Filter":    filter,
		"Page":      page,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	_, err := h.service.Create(r.Context(), businessID, CreateInput{
		Name:    r.PostFormValue("name"),
		Phone:   r.PostFormValue("phone"),
		Address: r.PostFormValue("address"),
		Email:   r.PostFormValue("email"),
		Notes:   r.PostFormValue("notes"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "success", "Cliente creado")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())

	in := UpdateInput{
		Name:    formValue(r, "name"),
		Phone:   formValue(r, "phone"),
		Address: formValue(r, "address"),
		Email:   formValue(r, "email"),
		Notes:   formValue(r, "notes"),
	}
	if st := r.PostFormValue("status"); st != "" {
		status := Status(st)
		in.Status = &status
	}

	if _, err := h.service.Update(r.Context(), businessID, chi.URLParam(r, "id"), in); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "success", "Cliente actualizado")
}

// Search answers the order form autocomplete with JSON.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	list, err := h.service.Search(r.Context(), businessID, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("search customers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, listPath, "error", msg)
		return
	}
	switch {
	case errors.Is(err, ErrAlreadyExists):
		h.render.Redirect(w, r, listPath, "error", "Ya existe un cliente con ese teléfono")
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, listPath, "error", "Cliente no encontrado")
	default:
		h.render.Fail(w, r, listPath, "No se pudo guardar el cliente", err)
	}
}

// formValue returns a pointer to the submitted field, or nil when absent.
func formValue(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}
