package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const listPath = "/dashboard/products"

// Handler serves the catalog pages.
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
	filter := ListFilter{Category: r.URL.Query().Get("category")}
	list, err := h.service.List(r.Context(), businessID, filter)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los productos", http.StatusInternalServerError)
		return
	}
	all := list
	if filter.Category != "" {
		if all, err = h.service.List(r.Context(), businessID, ListFilter{}); err != nil {
			h.logger.Error("list products failed", slog.Any("error", err))
			http.Error(w, "No se pudieron cargar los productos", http.StatusInternalServerError)
			return
		}
	}
	h.render.Page(w, r, http.StatusOK, "products", "Productos", map[string]any{
		"Products":   list,
		"Categories": Categories(all),
		"Filter":     filter,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := parseInput(r)
	if err != nil {
		h.render.Redirect(w, r, listPath, "error", "Precio inválido")
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	if _, err := h.service.Create(r.Context(), businessID, in); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "success", "Producto creado")
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	in, err := parseInput(r)
	if err != nil {
		h.render.Redirect(w, r, listPath, "error", "Precio inválido")
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	if _, err := h.service.Update(r.Context(), businessID, chi.URLParam(r, "id"), in); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "success", "Producto actualizado")
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	available := r.PostFormValue("available") == "true"
	if err := h.service.SetAvailability(r.Context(), businessID, chi.URLParam(r, "id"), available); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "", "")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	if err := h.service.Delete(r.Context(), businessID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render.Redirect(w, r, listPath, "success", "Producto eliminado")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, listPath, "error", msg)
		return
	}
	if errors.Is(err, ErrNotFound) {
		h.render.Redirect(w, r, listPath, "error", "Producto no encontrado")
		return
	}
	h.render.Fail(w, r, listPath, "No se pudo guardar el producto", err)
}

func parseInput(r *http.Request) (Input, error) {
	if err := r.ParseForm(); err != nil {
		return Input{}, err
	}
	price, err := ParsePrice(r.PostFormValue("price"))
	if err != nil {
		return Input{}, err
	}
	return Input{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       price,
		Category:    r.PostFormValue("category"),
	}, nil
}

// ParsePrice accepts "1500", "1500.50" and "1500,50".
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}
