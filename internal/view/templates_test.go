package view_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruweb/resto/internal/apikeys"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/cashregister"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/dashboard"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

func TestNewEngine(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err, "Templates should parse without error")
	for _, page := range []string{
		"auth_login", "dashboard", "orders", "order_new", "order_detail",
		"products", "customers", "cash_register", "settings", "settings_afip",
	} {
		assert.True(t, engine.Has(page), page)
	}
}

func sampleOrder() orders.Order {
	wait := 30
	return orders.Order{
		ID:                "3f0c2a4e-0000-4000-8000-000000000001",
		CustomerName:      "Ana",
		CustomerAddress:   "Belgrano 100",
		Status:            orders.StatusPending,
		Total:             3000,
		Source:            orders.SourceWhatsApp,
		PaymentMethod:     orders.PaymentCash,
		EstimatedWaitTime: &wait,
		Items: []orders.Item{
			{Name: "Muzzarella", Quantity: 2, Price: 1500, Notes: "sin aceitunas"},
		},
		CreatedAt: time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC),
	}
}

func render(t *testing.T, name string, data any) string {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusOK, name, view.TemplateData{
		Title:     "Página",
		CSRFToken: "tok-123",
		Flash:     &shared.FlashMessage{Kind: "success", Message: "Listo"},
		User:      shared.Principal{UserID: "u-1", BusinessID: "biz-1", Role: shared.RoleBusinessAdmin, Name: "Admin"},
		Data:      data,
	})
	require.NoError(t, err, name)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec.Body.String()
}

func TestRenderDashboardBoard(t *testing.T) {
	board := orders.Board{Version: 7, Columns: []orders.Column{
		{Status: orders.StatusPending, Orders: []orders.Order{sampleOrder()}},
		{Status: orders.StatusPreparation},
		{Status: orders.StatusReady},
		{Status: orders.StatusDelivered},
	}}
	body := render(t, "dashboard", dashboard.Overview{Board: board, TodaySales: 3000, PollInterval: 10 * time.Second})

	assert.Contains(t, body, `data-poll-ms="10000"`)
	assert.Contains(t, body, `data-version="7"`)
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "Demora 30 min")
	assert.Contains(t, body, "Sin caja abierta")
	assert.Contains(t, body, "Listo")
	assert.Contains(t, body, `content="tok-123"`)
}

func TestRenderOrderDetail(t *testing.T) {
	order := sampleOrder()
	body := render(t, "order_detail", map[string]any{
		"Order":    order,
		"Statuses": append(append([]orders.Status{}, orders.BoardStatuses...), orders.StatusCancelled),
		"MinWait":  orders.MinWaitMinutes,
		"MaxWait":  orders.MaxWaitMinutes,
	})
	assert.Contains(t, body, "/dashboard/orders/"+order.ID+"/confirm")
	assert.Contains(t, body, "/dashboard/orders/"+order.ID+"/invoice")
	assert.Contains(t, body, "sin aceitunas")
	assert.Contains(t, body, `<option value="pending" selected>`)

	order.Invoice = &orders.Invoice{CAE: "74123456789012", Number: 12, PointOfSale: 3}
	order.Status = orders.StatusDelivered
	body = render(t, "order_detail", map[string]any{"Order": order, "Statuses": orders.BoardStatuses})
	assert.Contains(t, body, "CAE 74123456789012")
	assert.NotContains(t, body, "/invoice")
	assert.NotContains(t, body, "/confirm")
}

func TestRenderListPages(t *testing.T) {
	cases := map[string]any{
		"orders": map[string]any{
			"Orders":   []orders.Order{sampleOrder()},
			"Page":     shared.Page{Number: 1, PerPage: 25, Total: 1},
			"Status":   "pending",
			"Statuses": orders.BoardStatuses,
		},
		"order_new": map[string]any{
			"Products":  []products.Product{{ID: "p-1", Name: "Muzzarella", Price: 1500, IsAvailable: true}},
			"Customers": []customers.Customer{{ID: "c-1", Name: "Ana", Phone: "1155550000"}},
		},
		"products": map[string]any{
			"Products":   []products.Product{{ID: "p-1", Name: "Muzzarella", Price: 1500, Category: "Pizzas"}},
			"Categories": []string{"Pizzas"},
			"Filter":     products.ListFilter{Category: "Pizzas"},
		},
		"customers": map[string]any{
			"Customers": []customers.Customer{{ID: "c-1", Name: "Ana", Status: customers.StatusWaitingAddress}},
			"Filter":    customers.ListFilter{},
			"Page":      shared.Page{Number: 2, PerPage: 25, Total: 60},
		},
		"settings": map[string]any{
			"Business": businesses.Business{Name: "Pizzería"},
			"APIKeys":  []apikeys.APIKey{{ID: "k-1", Name: "bot", Key: "sk_live_abcdefghijklmnop", IsActive: true}},
		},
		"settings_afip": map[string]any{
			"Business": businesses.Business{AFIPCUIT: "20409378472", AFIPEnvironment: "prod", AFIPPuntoVenta: 3},
		},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			body := render(t, name, data)
			if name == "orders" {
				assert.Contains(t, body, "Ana")
				assert.Contains(t, body, `<option value="pending" selected>`)
				return
			}
			assert.Contains(t, body, `name="csrf_token" value="tok-123"`)
		})
	}
}

func TestRenderCustomersPager(t *testing.T) {
	body := render(t, "customers", map[string]any{
		"Customers": []customers.Customer{},
		"Filter":    customers.ListFilter{},
		"Page":      shared.Page{Number: 2, PerPage: 25, Total: 60},
	})
	assert.Contains(t, body, "Página 2 de 3")
	assert.Contains(t, body, "?page=1")
	assert.Contains(t, body, "?page=3")
}

func TestRenderCashRegister(t *testing.T) {
	calc, actual := 2500.0, 2400.0
	closedAt := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	history := []cashregister.Register{{
		ID: "r-0", Status: cashregister.StatusClosed, InitialAmount: 1000,
		ClosingTime: &closedAt, FinalAmountCalculated: &calc, FinalAmountActual: &actual,
	}}

	body := render(t, "cash_register", map[string]any{"History": history})
	assert.Contains(t, body, "/dashboard/cash-register/open")
	assert.Contains(t, body, "/dashboard/cash-register/r-0/export")

	open := cashregister.Register{ID: "r-1", Status: cashregister.StatusOpen, InitialAmount: 1000}
	body = render(t, "cash_register", map[string]any{
		"Current": open,
		"Summary": cashregister.Summary{Register: open, Sales: 3000, Expected: 4000},
		"History": history,
	})
	assert.Contains(t, body, "/dashboard/cash-register/close")
	assert.NotContains(t, body, "/dashboard/cash-register/open")
}

func TestRenderLoginUsesBareLayout(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, engine.Render(rec, http.StatusBadRequest, "auth_login", view.TemplateData{Title: "Ingresar", CSRFToken: "tok"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `class="bare"`)
	assert.False(t, strings.Contains(body, "topbar"))
}

func TestRenderUnknownPage(t *testing.T) {
	engine, err := view.NewEngine()
	require.NoError(t, err)
	assert.Error(t, engine.Render(httptest.NewRecorder(), http.StatusOK, "missing", view.TemplateData{}))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "En preparación", view.StatusLabel(orders.StatusPreparation))
	assert.Equal(t, "Esperando dirección", view.StatusLabel("waiting_address"))
	assert.Equal(t, "other", view.StatusLabel("other"))
	assert.True(t, strings.HasPrefix(view.FormatMoney(1500), "$ "))
}
