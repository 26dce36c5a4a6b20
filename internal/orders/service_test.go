package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruweb/resto/internal/afip"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/platform/cache"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/webhook"
)

type sent struct {
	url     string
	payload webhook.Payload
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recordingNotifier) Notify(ctx context.Context, url string, p webhook.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{url: url, payload: p})
}

func (n *recordingNotifier) last(t *testing.T) sent {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

type stubInvoicer struct {
	invoice afip.Invoice
	err     error
	calls   int
	creds   afip.Credentials
	req     afip.InvoiceRequest
}

func (s *stubInvoicer) IssueInvoice(ctx context.Context, creds afip.Credentials, req afip.InvoiceRequest) (afip.Invoice, error) {
	s.calls++
	s.creds, s.req = creds, req
	return s.invoice, s.err
}

type invoiceCounter map[string]int

func (c invoiceCounter) ObserveInvoice(result string) { c[result]++ }

type fixture struct {
	svc       *Service
	repo      *MemoryRepository
	catalog   *products.Service
	customers *customers.Service
	biz       *businesses.MemoryRepository
	business  businesses.Business
	notifier  *recordingNotifier
	invoicer  *stubInvoicer
	metrics   invoiceCounter
	versions  *cache.Counter
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:      NewMemoryRepository(),
		catalog:   products.NewService(products.NewMemoryRepository()),
		customers: customers.NewService(customers.NewMemoryRepository()),
		biz:       businesses.NewMemoryRepository(),
		notifier:  &recordingNotifier{},
		invoicer:  &stubInvoicer{},
		metrics:   invoiceCounter{},
		versions:  cache.NewCounter(client, "orders:version"),
		now:       time.Date(2026, 3, 14, 20, 30, 0, 0, localZone),
	}
	f.repo.SetClock(func() time.Time { return f.now })
	f.business = f.biz.Put(businesses.Business{
		Name:             "La Esquina",
		Slug:             "la-esquina",
		WebhookURL:       "http://hooks.local/orders",
		WebhookStatusURL: "http://hooks.local/status",
	})
	f.svc = NewService(f.repo, db.NoopTransactor{}, Options{
		Catalog:          f.catalog,
		Customers:        f.customers,
		Businesses:       f.biz,
		AFIP:             f.invoicer,
		Notifier:         f.notifier,
		Versions:         f.versions,
		Metrics:          f.metrics,
		StatusWebhookURL: "http://n8n.local/cambios",
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:              func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) product(t *testing.T, name string, price float64) products.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), f.business.ID, products.Input{Name: name, Price: price, Category: "Pizzas"})
	require.NoError(t, err)
	return p
}

func (f *fixture) order(t *testing.T) Order {
	t.Helper()
	p := f.product(t, "Muzzarella", 8500)
	o, err := f.svc.Create(context.Background(), f.business.ID, CreateInput{
		Items: []LineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return o
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Ready ")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, s)

	_, err = ParseStatus("lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreatePricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pizza := f.product(t, "Muzzarella", 8500)
	coke := f.product(t, "Coca 1.5L", 2999.99)
	ana, err := f.customers.Create(ctx, f.business.ID, customers.CreateInput{Name: "Ana", Phone: "+5491155550000", Address: "Calle 1"})
	require.NoError(t, err)

	order, err := f.svc.Create(ctx, f.business.ID, CreateInput{
		CustomerID: ana.ID,
		Items: []LineInput{
			{ProductID: pizza.ID, Quantity: 2, Notes: " sin aceitunas "},
			{ProductID: coke.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentCash, order.PaymentMethod)
	assert.Equal(t, SourceWeb, order.Source)
	assert.InDelta(t, 19999.99, order.Total, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Muzzarella", order.Items[0].Name)
	assert.Equal(t, "sin aceitunas", order.Items[0].Notes)
	assert.Equal(t, "Ana", order.CustomerName)

	last := f.notifier.last(t)
	assert.Equal(t, "http://hooks.local/orders", last.url)
	created, ok := last.payload.(webhook.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, order.ID, created.Order.ID)
	assert.Len(t, created.Items, 2)

	version, err := f.svc.BoardVersion(ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pizza := f.product(t, "Muzzarella", 8500)

	_, err := f.svc.Create(ctx, f.business.ID, CreateInput{})
	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))

	require.NoError(t, f.catalog.SetAvailability(ctx, f.business.ID, pizza.ID, false))
	_, err = f.svc.Create(ctx, f.business.ID, CreateInput{Items: []LineInput{{ProductID: pizza.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = f.svc.Create(ctx, "other-business", CreateInput{Items: []LineInput{{ProductID: pizza.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Empty(t, f.notifier.sent)
}

func TestIntakeUpsertsCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pizza := f.product(t, "Muzzarella", 8500)

	order, err := f.svc.Intake(ctx, f.business.ID, IntakeInput{
		Customer: IntakeCustomer{Name: "Juan", Phone: "+5491100001111"},
		Items: []IntakeItem{
			{ID: pizza.ID, Name: "Muzzarella", Quantity: 1, Price: 8500},
			{ID: "9f1c7c1e-58a4-4b7e-9a43-7d51f1a2b001", Name: "Empanada", Quantity: 6, Price: 900},
		},
		Total: 13900,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, SourceWhatsApp, order.Source)
	assert.Equal(t, pizza.ID, order.Items[0].ProductID)
	assert.Empty(t, order.Items[1].ProductID)

	juan, err := f.customers.FindByPhone(ctx, f.business.ID, "+5491100001111")
	require.NoError(t, err)
	assert.Equal(t, customers.StatusWaitingAddress, juan.Status)
	assert.Equal(t, juan.ID, order.CustomerID)

	last := f.notifier.last(t)
	assert.Equal(t, "http://n8n.local/cambios", last.url)
	received, ok := last.payload.(webhook.OrderReceived)
	require.True(t, ok)
	assert.Equal(t, webhook.ReceivedMessage, received.Message)
	assert.Equal(t, "pending", received.Status)
	assert.Nil(t, received.EstimatedWaitTime)
	assert.InDelta(t, 13900, received.Total, 0.001)

	_, err = f.svc.Intake(ctx, f.business.ID, IntakeInput{
		Customer: IntakeCustomer{Name: "Juan Pérez", Phone: "+5491100001111", Address: "Av. Siempreviva 742"},
		Items:    []IntakeItem{{Name: "Muzzarella", Quantity: 1, Price: 8500}},
		Total:    8500,
		Source:   "instagram",
		Status:   "preparation",
	})
	require.NoError(t, err)
	juan, err = f.customers.FindByPhone(ctx, f.business.ID, "+5491100001111")
	require.NoError(t, err)
	assert.Equal(t, customers.StatusActive, juan.Status)
	assert.Equal(t, "Av. Siempreviva 742", juan.Address)
	assert.Equal(t, "Juan Pérez", juan.Name)

	received = f.notifier.last(t).payload.(webhook.OrderReceived)
	assert.Equal(t, "preparation", received.Status)
	assert.Equal(t, "Av. Siempreviva 742", received.Customer.Address)
}

func TestIntakeValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Intake(context.Background(), f.business.ID, IntakeInput{
		Customer: IntakeCustomer{Name: "Juan"},
		Items:    []IntakeItem{{Name: "x", Quantity: 0, Price: -1}},
		Total:    -5,
		Status:   "lost",
	})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 5)
	assert.Empty(t, f.notifier.sent)
}

func TestUpdateStatusAsksForInvoiceOnDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)

	change, err := f.svc.UpdateStatus(ctx, f.business.ID, order.ID, StatusReady)
	require.NoError(t, err)
	assert.False(t, change.NeedsInvoice)

	change, err = f.svc.UpdateStatus(ctx, f.business.ID, order.ID, StatusDelivered)
	require.NoError(t, err)
	assert.True(t, change.NeedsInvoice)

	last := f.notifier.last(t)
	assert.Equal(t, "http://hooks.local/status", last.url)
	assert.Equal(t, webhook.NewStatusUpdated(order.ID, "delivered"), last.payload)

	_, err = f.svc.UpdateStatus(ctx, f.business.ID, order.ID, Status("lost"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.svc.UpdateStatus(ctx, "other-business", order.ID, StatusReady)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusWithoutInvoicePromptWhenInvoiced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)
	require.NoError(t, f.repo.SaveInvoice(ctx, f.business.ID, order.ID, Invoice{CAE: "123"}))

	change, err := f.svc.UpdateStatus(ctx, f.business.ID, order.ID, StatusDelivered)
	require.NoError(t, err)
	assert.False(t, change.NeedsInvoice)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	juan, err := f.customers.Create(ctx, f.business.ID, customers.CreateInput{Name: "Juan", Phone: "+549111", Address: "Calle 2"})
	require.NoError(t, err)
	p := f.product(t, "Fugazza", 9000)
	order, err := f.svc.Create(ctx, f.business.ID, CreateInput{
		CustomerID: juan.ID,
		Items:      []LineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	for _, minutes := range []int{0, -5, 241} {
		_, err := f.svc.Confirm(ctx, f.business.ID, order.ID, minutes)
		assert.ErrorIs(t, err, ErrInvalidWaitTime, minutes)
	}

	confirmed, err := f.svc.Confirm(ctx, f.business.ID, order.ID, 35)
	require.NoError(t, err)
	assert.Equal(t, StatusPreparation, confirmed.Status)
	require.NotNil(t, confirmed.EstimatedWaitTime)
	assert.Equal(t, 35, *confirmed.EstimatedWaitTime)

	last := f.notifier.last(t)
	assert.Equal(t, "http://hooks.local/orders", last.url)
	payload := last.payload.(webhook.OrderConfirmed)
	assert.Equal(t, "Tu pedido ha sido confirmado. Tiempo estimado de demora: 35 minutos.", payload.Message)
	assert.Equal(t, webhook.Customer{Name: "Juan", Phone: "+549111"}, payload.Customer)
	assert.Equal(t, "preparation", payload.Status)

	_, err = f.svc.Confirm(ctx, f.business.ID, "missing", 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)

	_, err := f.svc.Invoice(ctx, f.business.ID, order.ID)
	assert.ErrorIs(t, err, ErrAFIPNotConfigured)
	assert.Zero(t, f.invoicer.calls)

	f.business.AFIPCUIT = "20123456789"
	f.business.AFIPToken = "sdk-token"
	f.business.AFIPPuntoVenta = 3
	f.biz.Put(f.business)

	f.invoicer.err = &afip.RejectionError{Code: 10016, Message: "fecha fuera de rango"}
	_, err = f.svc.Invoice(ctx, f.business.ID, order.ID)
	assert.ErrorIs(t, err, afip.ErrRejected)
	assert.EqualError(t, err, "AFIP rejected: fecha fuera de rango")
	stored, err := f.svc.Get(ctx, f.business.ID, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.Invoiced())
	assert.Equal(t, 1, f.metrics["error"])

	expiry := time.Date(2026, 3, 24, 0, 0, 0, 0, localZone)
	f.invoicer.err = nil
	f.invoicer.invoice = afip.Invoice{CAE: "74123456789012", CAEExpiration: expiry, Number: 43, PointOfSale: 3, Type: afip.InvoiceTypeFacturaC}
	invoiced, err := f.svc.Invoice(ctx, f.business.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "74123456789012", invoiced.Invoice.CAE)
	assert.Equal(t, 3, f.invoicer.req.PointOfSale)
	assert.Equal(t, afip.InvoiceTypeFacturaC, f.invoicer.req.InvoiceType)
	assert.InDelta(t, 8500, f.invoicer.req.Total, 0.001)
	assert.Equal(t, "20123456789", f.invoicer.creds.CUIT)
	assert.Equal(t, afip.EnvironmentDev, f.invoicer.creds.Environment)
	assert.Equal(t, 1, f.metrics["ok"])

	stored, err = f.svc.Get(ctx, f.business.ID, order.ID)
	require.NoError(t, err)
	require.True(t, stored.Invoiced())
	assert.Equal(t, int64(43), stored.Invoice.Number)
	assert.True(t, stored.Invoice.CAEExpiration.Equal(expiry))
	assert.Equal(t, f.now, stored.Invoice.InvoicedAt)

	_, err = f.svc.Invoice(ctx, f.business.ID, order.ID)
	assert.ErrorIs(t, err, ErrAlreadyInvoiced)
	assert.Equal(t, 2, f.invoicer.calls)
}

func TestLiveBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.now = f.now.AddDate(0, 0, -1)
	old := f.order(t)
	_, err := f.svc.UpdateStatus(ctx, f.business.ID, old.ID, StatusDelivered)
	require.NoError(t, err)
	f.now = f.now.AddDate(0, 0, 1)

	pending := f.order(t)
	ready := f.order(t)
	delivered := f.order(t)
	cancelled := f.order(t)
	_, err = f.svc.UpdateStatus(ctx, f.business.ID, ready.ID, StatusReady)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.business.ID, delivered.ID, StatusDelivered)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.business.ID, cancelled.ID, StatusCancelled)
	require.NoError(t, err)

	board, err := f.svc.LiveBoard(ctx, f.business.ID)
	require.NoError(t, err)
	require.Len(t, board.Columns, 4)
	assert.Equal(t, StatusPending, board.Columns[0].Status)
	require.Len(t, board.Columns[0].Orders, 1)
	assert.Equal(t, pending.ID, board.Columns[0].Orders[0].ID)
	assert.Empty(t, board.Columns[1].Orders)
	require.Len(t, board.Columns[2].Orders, 1)
	assert.Equal(t, ready.ID, board.Columns[2].Orders[0].ID)
	require.Len(t, board.Columns[3].Orders, 1)
	assert.Equal(t, delivered.ID, board.Columns[3].Orders[0].ID)
	assert.Equal(t, 3, board.Count())

	version, err := f.svc.BoardVersion(ctx, f.business.ID)
	require.NoError(t, err)
	assert.Equal(t, version, board.Version)
	assert.Equal(t, int64(9), version)
}

func TestSalesTotalExcludesCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := f.now.Add(-time.Minute)

	a := f.order(t)
	f.order(t)
	_, err := f.svc.UpdateStatus(ctx, f.business.ID, a.ID, StatusCancelled)
	require.NoError(t, err)

	total, err := f.svc.SalesTotal(ctx, f.business.ID, from, f.now.Add(time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 8500, total, 0.001)
}

func TestTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.order(t)

	for _, kind := range []TicketKind{TicketCustomer, TicketKitchen} {
		name, data, err := f.svc.Ticket(ctx, f.business.ID, order.ID, kind)
		require.NoError(t, err)
		assert.Equal(t, string(kind)+"-"+order.ID[:8]+".pdf", name)
		assert.Equal(t, "%PDF", string(data[:4]))
	}
	assert.Equal(t, TicketKitchen, ParseTicketKind("COMANDA"))
	assert.Equal(t, TicketCustomer, ParseTicketKind(""))

	_, _, err := f.svc.Ticket(ctx, f.business.ID, "missing", TicketCustomer)
	assert.ErrorIs(t, err, ErrNotFound)
}
