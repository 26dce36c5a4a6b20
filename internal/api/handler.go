// Package api serves the tenant REST surface used by chat bots and other
// integrations. Every route except /health is scoped by the x-api-key header.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/platform/httpx"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/shared"
)

const (
	msgInvalidJSON      = "Invalid JSON"
	msgInternal         = "Internal Server Error"
	msgCustomerNotFound = "Customer not found"
	msgCustomerConflict = "Conflict: Customer already exists with this phone number"
	msgMissingPhone     = "Missing 'phone' query parameter"
)

// CustomerService is the customer behaviour the API needs.
type CustomerService interface {
	Create(ctx context.Context, businessID string, in customers.CreateInput) (customers.Customer, error)
	Update(ctx context.Context, businessID, id string, in customers.UpdateInput) (customers.Customer, error)
	FindByPhone(ctx context.Context, businessID, phone string) (customers.Customer, error)
}

// OrderService takes orders received from outside the dashboard.
type OrderService interface {
	Intake(ctx context.Context, businessID string, in orders.IntakeInput) (orders.Order, error)
}

// ProductService lists the tenant catalog.
type ProductService interface {
	List(ctx context.Context, businessID string, filter products.ListFilter) ([]products.Product, error)
}

// HealthFunc pings the database.
type HealthFunc func(ctx context.Context) error

// Handler serves /api.
type Handler struct {
	logger    *slog.Logger
	customers CustomerService
	orders    OrderService
	products  ProductService
	health    HealthFunc
}

// NewHandler constructs the REST handler.
func NewHandler(logger *slog.Logger, c CustomerService, o OrderService, p ProductService, health HealthFunc) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, customers: c, orders: o, products: p, health: health}
}

type customerCreated struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	CustomerID string           `json:"customerId"`
	Status     customers.Status `json:"status"`
}

type customerConflict struct {
	Error      string          `json:"error"`
	CustomerID string          `json:"customerId"`
	Customer   conflictSummary `json:"customer"`
}

type conflictSummary struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type success struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

type customerPatch struct {
	ID string `json:"id"`
	customers.UpdateInput
}

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// CreateCustomer handles POST /customers.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customers.CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	businessID := tenant(r)

	c, err := h.customers.Create(r.Context(), businessID, in)
	if err != nil {
		var dup *customers.DuplicateError
		switch {
		case errors.As(err, &dup):
			httpx.JSON(w, http.StatusConflict, customerConflict{
				Error:      msgCustomerConflict,
				CustomerID: dup.Existing.ID,
				Customer:   conflictSummary{Name: dup.Existing.Name, Address: dup.Existing.Address},
			})
		case isValidation(err):
			httpx.ValidationError(w, httpx.ValidationDetails(err))
		default:
			h.internal(w, "api create customer", err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, customerCreated{
		Success:    true,
		Message:    "Customer created successfully",
		CustomerID: c.ID,
		Status:     c.Status,
	})
}

// UpdateCustomer handles PATCH /customers.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var in customerPatch
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if _, err := uuid.Parse(strings.TrimSpace(in.ID)); err != nil {
		httpx.ValidationError(w, map[string]string{"id": "must be a valid UUID"})
		return
	}
	businessID := tenant(r)

	_, err := h.customers.Update(r.Context(), businessID, strings.TrimSpace(in.ID), in.UpdateInput)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, success{Success: true, Message: "Customer updated successfully"})
	case errors.Is(err, customers.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, msgCustomerNotFound)
	case errors.Is(err, customers.ErrAlreadyExists):
		httpx.Error(w, http.StatusConflict, msgCustomerConflict)
	case isValidation(err):
		httpx.ValidationError(w, httpx.ValidationDetails(err))
	default:
		h.internal(w, "api update customer", err)
	}
}

// SearchCustomer handles GET /customers/search?phone=.
func (h *Handler) SearchCustomer(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		httpx.Error(w, http.StatusBadRequest, msgMissingPhone)
		return
	}
	c, err := h.customers.FindByPhone(r.Context(), tenant(r), phone)
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, c)
	case errors.Is(err, customers.ErrNotFound):
		httpx.Error(w, http.StatusNotFound, msgCustomerNotFound)
	default:
		h.internal(w, "api search customer", err)
	}
}

// CreateOrder handles POST /orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in orders.IntakeInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	order, err := h.orders.Intake(r.Context(), tenant(r), in)
	if err != nil {
		if isValidation(err) {
			httpx.ValidationError(w, httpx.ValidationDetails(err))
			return
		}
		h.internal(w, "api create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, success{
		Success: true,
		Message: "Order created successfully",
		OrderID: order.ID,
	})
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context(), tenant(r), products.ListFilter{})
	if err != nil {
		h.internal(w, "api list products", err)
		return
	}
	if list == nil {
		list = []products.Product{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httpx.JSON(w, http.StatusOK, healthBody{Status: "ok", Database: "unknown"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.health(ctx); err != nil {
		h.logger.Error("api health", slog.Any("error", err))
		httpx.JSON(w, http.StatusServiceUnavailable, healthBody{Status: "error", Database: "disconnected"})
		return
	}
	httpx.JSON(w, http.StatusOK, healthBody{Status: "ok", Database: "connected"})
}

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.Error(w, http.StatusInternalServerError, msgInternal)
}

func tenant(r *http.Request) string {
	id, _ := shared.TenantFromContext(r.Context())
	return id
}

func isValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
