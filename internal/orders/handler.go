package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guruweb/resto/internal/afip"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/platform/httpx"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

const (
	listPath  = "/dashboard/orders"
	boardPath = "/dashboard"
	perPage   = 25
)

// ProductLister lists the catalog for the new order form.
type ProductLister interface {
	List(ctx context.Context, businessID string, filter products.ListFilter) ([]products.Product, error)
}

// CustomerLister lists customers for the new order form.
type CustomerLister interface {
	List(ctx context.Context, businessID string, filter customers.ListFilter) ([]customers.Customer, int, error)
}

// Handler serves the order pages and the kanban endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	products  ProductLister
	customers CustomerLister
	render    *view.Renderer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, products ProductLister, customers CustomerLister, render *view.Renderer) *Handler {
	return &Handler{logger: logger, service: service, products: products, customers: customers, render: render}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	q := r.URL.Query()
	page := shared.PageFromQuery(q, perPage)
	filter := ListFilter{Status: Status(q.Get("status")), Limit: page.PerPage, Offset: page.Offset()}
	if raw := q.Get("date"); raw != "" {
		if d, err := time.ParseInLocation("2006-01-02", raw, localZone); err == nil {
			filter.Date = d
		}
	}
	list, total, err := h.service.List(r.Context(), businessID, filter)
	if errors.Is(err, ErrInvalidStatus) {
		h.render.Redirect(w, r, listPath, "error", "Estado inválido")
		return
	}
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los pedidos", http.StatusInternalServerError)
		return
	}
	page.Total = total
	h.render.Page(w, r, http.StatusOK, "orders", "Pedidos", map[string]any{
		"Orders":   list,
		"Page":     page,
		"Status":   q.Get("status"),
		"Date":     q.Get("date"),
		"Statuses": append(append([]Status{}, BoardStatuses...), StatusCancelled),
	})
}

func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	catalog, err := h.products.List(r.Context(), businessID, products.ListFilter{OnlyAvailable: true})
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los productos", http.StatusInternalServerError)
		return
	}
	people, _, err := h.customers.List(r.Context(), businessID, customers.ListFilter{Limit: 500})
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		http.Error(w, "No se pudieron cargar los clientes", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, http.StatusOK, "order_new", "Nuevo pedido", map[string]any{
		"Products":  catalog,
		"Customers": people,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in, err := parseCreateForm(r.PostForm)
	if err != nil {
		h.render.Redirect(w, r, listPath+"/new", "error", "Cantidad inválida")
		return
	}
	businessID, _ := shared.TenantFromContext(r.Context())
	order, err := h.service.Create(r.Context(), businessID, in)
	if msg, ok := view.Invalid(err); ok {
		h.render.Redirect(w, r, listPath+"/new", "error", msg)
		return
	}
	switch {
	case errors.Is(err, ErrUnknownProduct):
		h.render.Redirect(w, r, listPath+"/new", "error", "Uno de los productos ya no está disponible")
	case errors.Is(err, customers.ErrNotFound):
		h.render.Redirect(w, r, listPath+"/new", "error", "Cliente no encontrado")
	case err != nil:
		h.render.Fail(w, r, listPath+"/new", "No se pudo crear el pedido", err)
	default:
		h.render.Redirect(w, r, listPath+"/"+order.ID, "success", "Pedido creado")
	}
}

// parseCreateForm reads parallel product_id/quantity/notes fields. Lines
// with an empty product or a zero quantity are skipped.
func parseCreateForm(form url.Values) (CreateInput, error) {
	in := CreateInput{
		CustomerID:    form.Get("customer_id"),
		PaymentMethod: form.Get("payment_method"),
	}
	ids := form["product_id"]
	qtys := form["quantity"]
	notes := form["notes"]
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || i >= len(qtys) {
			continue
		}
		raw := strings.TrimSpace(qtys[i])
		if raw == "" {
			continue
		}
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return CreateInput{}, fmt.Errorf("quantity %q: %w", raw, err)
		}
		if qty == 0 {
			continue
		}
		line := LineInput{ProductID: id, Quantity: qty}
		if i < len(notes) {
			line.Notes = notes[i]
		}
		in.Items = append(in.Items, line)
	}
	return in, nil
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	order, err := h.service.Get(r.Context(), businessID, chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		h.render.Redirect(w, r, listPath, "error", "Pedido no encontrado")
		return
	}
	if err != nil {
		h.logger.Error("load order failed", slog.Any("error", err))
		http.Error(w, "No se pudo cargar el pedido", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, http.StatusOK, "order_detail", "Pedido #"+shortID(order.ID), map[string]any{
		"Order":    order,
		"Statuses": append(append([]Status{}, BoardStatuses...), StatusCancelled),
		"MinWait":  MinWaitMinutes,
		"MaxWait":  MaxWaitMinutes,
	})
}

// Live serves the board as JSON. The board version doubles as ETag so an
// unchanged board answers 304 without touching Postgres.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	version, err := h.service.BoardVersion(r.Context(), businessID)
	if err != nil {
		h.logger.Warn("board version", slog.Any("error", err))
	} else if match := r.Header.Get("If-None-Match"); match != "" && match == ETag(version) {
		w.Header().Set("ETag", ETag(version))
		w.WriteHeader(http.StatusNotModified)
		return
	}

	board, err := h.service.LiveBoard(r.Context(), businessID)
	if err != nil {
		h.logger.Error("live board failed", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.Header().Set("ETag", ETag(board.Version))
	w.Header().Set("Cache-Control", "no-cache")
	httpx.JSON(w, http.StatusOK, board)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	id := chi.URLParam(r, "id")
	asJSON := wantsJSON(r)

	var raw string
	if isJSONBody(r) {
		var body statusRequest
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.Error(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		raw = body.Status
	} else {
		raw = r.PostFormValue("status")
	}

	status, err := ParseStatus(raw)
	var change StatusChange
	if err == nil {
		change, err = h.service.UpdateStatus(r.Context(), businessID, id, status)
	}
	if asJSON {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			httpx.Error(w, http.StatusBadRequest, "Invalid status")
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Order not found")
		case err != nil:
			h.logger.Error("update status failed", slog.Any("error", err))
			httpx.Error(w, http.StatusInternalServerError, "Internal Server Error")
		default:
			httpx.JSON(w, http.StatusOK, change)
		}
		return
	}

	back := listPath + "/" + id
	switch {
	case errors.Is(err, ErrInvalidStatus):
		h.render.Redirect(w, r, back, "error", "Estado inválido")
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, listPath, "error", "Pedido no encontrado")
	case err != nil:
		h.render.Fail(w, r, back, "No se pudo actualizar el estado", err)
	case change.NeedsInvoice:
		h.render.Redirect(w, r, back, "warning", "Pedido entregado sin factura AFIP. Podés emitirla desde acá.")
	default:
		h.render.Redirect(w, r, back, "success", "Estado actualizado: "+view.StatusLabel(change.Status))
	}
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	id := chi.URLParam(r, "id")
	back := listPath + "/" + id

	minutes, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("minutes")))
	if err != nil {
		minutes = 0
	}
	_, err = h.service.Confirm(r.Context(), businessID, id, minutes)
	switch {
	case errors.Is(err, ErrInvalidWaitTime):
		h.render.Redirect(w, r, back, "error",
			fmt.Sprintf("La demora debe estar entre %d y %d minutos", MinWaitMinutes, MaxWaitMinutes))
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, listPath, "error", "Pedido no encontrado")
	case err != nil:
		h.render.Fail(w, r, back, "No se pudo confirmar el pedido", err)
	default:
		h.render.Redirect(w, r, back, "success", fmt.Sprintf("Pedido confirmado: %d minutos", minutes))
	}
}

func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	id := chi.URLParam(r, "id")
	order, err := h.service.Invoice(r.Context(), businessID, id)

	if wantsJSON(r) {
		switch {
		case err == nil:
			httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "invoice": order.Invoice})
		case errors.Is(err, ErrNotFound):
			httpx.Error(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, ErrAlreadyInvoiced), errors.Is(err, ErrAFIPNotConfigured):
			httpx.Error(w, http.StatusConflict, err.Error())
		default:
			httpx.Error(w, http.StatusBadGateway, invoiceMessage(err))
		}
		return
	}

	back := listPath + "/" + id
	switch {
	case err == nil:
		h.render.Redirect(w, r, back, "success", "Factura emitida. CAE "+order.Invoice.CAE)
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, listPath, "error", "Pedido no encontrado")
	case errors.Is(err, ErrAlreadyInvoiced):
		h.render.Redirect(w, r, back, "error", "El pedido ya fue facturado")
	case errors.Is(err, ErrAFIPNotConfigured):
		h.render.Redirect(w, r, back, "error", "AFIP no está configurado. Revisá la configuración.")
	default:
		h.render.Redirect(w, r, back, "error", "Error AFIP: "+invoiceMessage(err))
	}
}

// invoiceMessage exposes AFIP and afipsdk answers verbatim and hides
// everything else.
func invoiceMessage(err error) string {
	var (
		rejection *afip.RejectionError
		upstream  *afip.HTTPError
	)
	switch {
	case errors.As(err, &rejection):
		return rejection.Error()
	case errors.As(err, &upstream):
		return upstream.Error()
	}
	return "Failed to generate AFIP invoice"
}

func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	kind := ParseTicketKind(r.URL.Query().Get("kind"))
	name, data, err := h.service.Ticket(r.Context(), businessID, chi.URLParam(r, "id"), kind)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("render ticket failed", slog.Any("error", err))
		http.Error(w, "No se pudo generar el ticket", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") || isJSONBody(r)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
