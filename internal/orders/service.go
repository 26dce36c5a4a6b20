package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/guruweb/resto/internal/afip"
	"github.com/guruweb/resto/internal/businesses"
	"github.com/guruweb/resto/internal/customers"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/products"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/webhook"
)

// Wait time bounds accepted by Confirm, in minutes.
const (
	MinWaitMinutes = 1
	MaxWaitMinutes = 240
)

// localZone is the business day used by listings and the board.
var localZone = time.FixedZone("ART", -3*60*60)

// DayBounds returns the local day containing t as [from, to).
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(localZone)
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, localZone)
	return from, from.AddDate(0, 0, 1)
}

// Catalog resolves product snapshots.
type Catalog interface {
	Lookup(ctx context.Context, businessID string, ids []string) (map[string]products.Product, error)
}

// Customers resolves and upserts the customer of an order.
type Customers interface {
	Get(ctx context.Context, businessID, id string) (customers.Customer, error)
	UpsertByPhone(ctx context.Context, businessID, name, phone, address string) (customers.Customer, error)
}

// Businesses loads tenant settings (webhook URLs, AFIP credentials).
type Businesses interface {
	Get(ctx context.Context, id string) (businesses.Business, error)
}

// Invoicer authorizes electronic invoices.
type Invoicer interface {
	IssueInvoice(ctx context.Context, creds afip.Credentials, req afip.InvoiceRequest) (afip.Invoice, error)
}

// Notifier dispatches webhook payloads. It never reports failures.
type Notifier interface {
	Notify(ctx context.Context, url string, p webhook.Payload)
}

// Versions tracks a per-tenant board version.
type Versions interface {
	Get(ctx context.Context, id string) (int64, error)
	Bump(ctx context.Context, id string) (int64, error)
}

// InvoiceRecorder counts invoice attempts by result.
type InvoiceRecorder interface {
	ObserveInvoice(result string)
}

// Options carries the collaborators of a Service. Nil Versions and Metrics
// are allowed.
type Options struct {
	Catalog          Catalog
	Customers        Customers
	Businesses       Businesses
	AFIP             Invoicer
	Notifier         Notifier
	Versions         Versions
	Metrics          InvoiceRecorder
	StatusWebhookURL string
	Logger           *slog.Logger
	Now              func() time.Time
}

// Service implements order intake, the kanban and invoicing.
type Service struct {
	repo             Repository
	tx               db.Transactor
	catalog          Catalog
	customers        Customers
	businesses       Businesses
	afip             Invoicer
	notifier         Notifier
	versions         Versions
	metrics          InvoiceRecorder
	statusWebhookURL string
	logger           *slog.Logger
	now              func() time.Time
	validate         *validator.Validate
	boards           singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, tx db.Transactor, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:             repo,
		tx:               tx,
		catalog:          opts.Catalog,
		customers:        opts.Customers,
		businesses:       opts.Businesses,
		afip:             opts.AFIP,
		notifier:         opts.Notifier,
		versions:         opts.Versions,
		metrics:          opts.Metrics,
		statusWebhookURL: opts.StatusWebhookURL,
		logger:           opts.Logger,
		now:              opts.Now,
		validate:         shared.NewValidator(),
	}
}

// Create records a dashboard order. Lines are priced from the catalog.
func (s *Service) Create(ctx context.Context, businessID string, in CreateInput) (Order, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentCash
	}
	if err := s.validate.Struct(in); err != nil {
		return Order{}, err
	}

	ids := make([]string, 0, len(in.Items))
	for _, line := range in.Items {
		ids = append(ids, line.ProductID)
	}
	catalog, err := s.catalog.Lookup(ctx, businessID, ids)
	if err != nil {
		return Order{}, fmt.Errorf("lookup products: %w", err)
	}

	order := Order{
		BusinessID:    businessID,
		CustomerID:    in.CustomerID,
		Status:        StatusPending,
		PaymentMethod: in.PaymentMethod,
		Source:        SourceWeb,
	}
	for _, line := range in.Items {
		p, ok := catalog[line.ProductID]
		if !ok || !p.IsAvailable {
			return Order{}, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
		}
		item := Item{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     p.Price,
			Notes:     strings.TrimSpace(line.Notes),
		}
		order.Items = append(order.Items, item)
		order.Total += item.Subtotal()
	}
	order.Total = roundMoney(order.Total)

	if order.CustomerID != "" {
		c, err := s.customers.Get(ctx, businessID, order.CustomerID)
		if err != nil {
			return Order{}, fmt.Errorf("order customer: %w", err)
		}
		order.CustomerName, order.CustomerPhone, order.CustomerAddress = c.Name, c.Phone, c.Address
	}

	var created Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	s.bump(ctx, businessID)

	if b, ok := s.business(ctx, businessID); ok {
		s.notify(ctx, b.WebhookURL, webhook.NewOrderCreated(snapshot(created), webhookItems(created.Items)))
	}
	return created, nil
}

// Intake records an order received through the REST API. The customer is
// upserted by phone in the same transaction as the order and its items.
func (s *Service) Intake(ctx context.Context, businessID string, in IntakeInput) (Order, error) {
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	in.Customer.Address = strings.TrimSpace(in.Customer.Address)
	in.Source = strings.TrimSpace(in.Source)
	if err := s.validate.Struct(in); err != nil {
		return Order{}, err
	}

	status := StatusPending
	if in.Status != "" {
		status = Status(in.Status)
	}
	source := in.Source
	if source == "" {
		source = SourceWhatsApp
	}

	known, err := s.knownProducts(ctx, businessID, in.Items)
	if err != nil {
		return Order{}, err
	}

	var created Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.customers.UpsertByPhone(ctx, businessID, in.Customer.Name, in.Customer.Phone, in.Customer.Address)
		if err != nil {
			return err
		}
		order := Order{
			BusinessID:      businessID,
			CustomerID:      c.ID,
			CustomerName:    c.Name,
			CustomerPhone:   c.Phone,
			CustomerAddress: c.Address,
			Status:          status,
			Total:           roundMoney(in.Total),
			PaymentMethod:   PaymentCash,
			Source:          source,
		}
		for _, it := range in.Items {
			item := Item{
				Name:     strings.TrimSpace(it.Name),
				Quantity: it.Quantity,
				Price:    roundMoney(it.Price),
				Notes:    strings.TrimSpace(it.Notes),
			}
			if known[it.ID] {
				item.ProductID = it.ID
			}
			order.Items = append(order.Items, item)
		}
		created, err = s.repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return Order{}, fmt.Errorf("intake order: %w", err)
	}
	s.bump(ctx, businessID)

	items := make([]webhook.Item, 0, len(created.Items))
	for _, it := range created.Items {
		items = append(items, webhook.Item{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	s.notify(ctx, s.statusWebhookURL, webhook.NewOrderReceived(created.ID,
		webhook.Customer{Name: created.CustomerName, Phone: created.CustomerPhone, Address: created.CustomerAddress},
		items, created.Total, string(created.Status)))
	return created, nil
}

// knownProducts reports which caller supplied item ids are products of the
// business. Unknown ids are kept as ad-hoc lines.
func (s *Service) knownProducts(ctx context.Context, businessID string, items []IntakeItem) (map[string]bool, error) {
	var ids []string
	for _, it := range items {
		if it.ID != "" {
			ids = append(ids, it.ID)
		}
	}
	known := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	catalog, err := s.catalog.Lookup(ctx, businessID, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}
	for id := range catalog {
		known[id] = true
	}
	return known, nil
}

// UpdateStatus moves an order on the kanban.
func (s *Service) UpdateStatus(ctx context.Context, businessID, id string, status Status) (StatusChange, error) {
	if !status.Valid() {
		return StatusChange{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	current, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return StatusChange{}, err
	}
	if err := s.repo.SetStatus(ctx, businessID, id, status); err != nil {
		return StatusChange{}, fmt.Errorf("update status: %w", err)
	}
	s.bump(ctx, businessID)

	if b, ok := s.business(ctx, businessID); ok {
		s.notify(ctx, b.WebhookStatusURL, webhook.NewStatusUpdated(id, string(status)))
	}
	return StatusChange{
		OrderID:      id,
		Status:       status,
		NeedsInvoice: status == StatusDelivered && !current.Invoiced(),
	}, nil
}

// Confirm accepts an order into the kitchen with an estimated wait and
// tells the customer.
func (s *Service) Confirm(ctx context.Context, businessID, id string, minutes int) (Order, error) {
	if minutes < MinWaitMinutes || minutes > MaxWaitMinutes {
		return Order{}, ErrInvalidWaitTime
	}
	if err := s.repo.Confirm(ctx, businessID, id, minutes); err != nil {
		return Order{}, fmt.Errorf("confirm order: %w", err)
	}
	s.bump(ctx, businessID)

	order, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return Order{}, err
	}
	if b, ok := s.business(ctx, businessID); ok {
		s.notify(ctx, b.WebhookURL, webhook.NewOrderConfirmed(order.ID,
			webhook.Customer{Name: order.CustomerName, Phone: order.CustomerPhone},
			string(StatusPreparation), minutes))
	}
	return order, nil
}

// Invoice requests a CAE from AFIP for the order total and stores it. The
// call is made once; a failure leaves the order uninvoiced.
func (s *Service) Invoice(ctx context.Context, businessID, id string) (Order, error) {
	order, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return Order{}, err
	}
	if order.Invoiced() {
		return Order{}, ErrAlreadyInvoiced
	}
	business, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		return Order{}, fmt.Errorf("load business: %w", err)
	}
	if !business.AFIPConfigured() {
		return Order{}, ErrAFIPNotConfigured
	}

	issued, err := s.afip.IssueInvoice(ctx, business.AFIPCredentials(), afip.InvoiceRequest{
		PointOfSale: business.PointOfSale(),
		InvoiceType: afip.InvoiceTypeFacturaC,
		Concept:     afip.ConceptProducts,
		DocType:     afip.DocTypeFinalConsumer,
		Total:       order.Total,
	})
	if err != nil {
		s.observeInvoice("error")
		s.logger.Warn("afip invoice failed",
			slog.String("business_id", businessID),
			slog.String("order_id", id),
			slog.Any("error", err))
		return Order{}, err
	}

	inv := Invoice{
		CAE:           issued.CAE,
		CAEExpiration: issued.CAEExpiration,
		Number:        issued.Number,
		Type:          issued.Type,
		PointOfSale:   issued.PointOfSale,
		InvoicedAt:    s.now(),
	}
	if err := s.repo.SaveInvoice(ctx, businessID, id, inv); err != nil {
		s.observeInvoice("error")
		s.logger.Error("store afip invoice",
			slog.String("order_id", id),
			slog.String("cae", inv.CAE),
			slog.Any("error", err))
		return Order{}, fmt.Errorf("store invoice: %w", err)
	}
	s.observeInvoice("ok")
	s.bump(ctx, businessID)

	order.Invoice = &inv
	return order, nil
}

// Get returns an order with its items and customer.
func (s *Service) Get(ctx context.Context, businessID, id string) (Order, error) {
	return s.repo.Get(ctx, businessID, id)
}

// List returns a page of orders and the total count.
func (s *Service) List(ctx context.Context, businessID string, filter ListFilter) ([]Order, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	return s.repo.List(ctx, businessID, filter)
}

// Between returns every order created in [from, to).
func (s *Service) Between(ctx context.Context, businessID string, from, to time.Time) ([]Order, error) {
	return s.repo.Between(ctx, businessID, from, to)
}

// SalesTotal sums the totals of non-cancelled orders created in [from, to).
func (s *Service) SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error) {
	total, err := s.repo.SalesTotal(ctx, businessID, from, to)
	if err != nil {
		return 0, err
	}
	return roundMoney(total), nil
}

// BoardVersion returns the current board version of the business.
func (s *Service) BoardVersion(ctx context.Context, businessID string) (int64, error) {
	if s.versions == nil {
		return 0, nil
	}
	return s.versions.Get(ctx, businessID)
}

// LiveBoard returns open orders plus the ones delivered today, grouped by
// status. Concurrent loads for one business share a single query.
func (s *Service) LiveBoard(ctx context.Context, businessID string) (Board, error) {
	v, err, _ := s.boards.Do(businessID, func() (any, error) {
		version, err := s.BoardVersion(ctx, businessID)
		if err != nil {
			s.logger.Warn("board version", slog.String("business_id", businessID), slog.Any("error", err))
		}
		today, _ := DayBounds(s.now())
		list, err := s.repo.Board(ctx, businessID, today)
		if err != nil {
			return Board{}, err
		}
		return groupBoard(list, version), nil
	})
	if err != nil {
		return Board{}, fmt.Errorf("load board: %w", err)
	}
	return v.(Board), nil
}

func groupBoard(list []Order, version int64) Board {
	board := Board{Version: version, Columns: make([]Column, len(BoardStatuses))}
	pos := make(map[Status]int, len(BoardStatuses))
	for i, st := range BoardStatuses {
		board.Columns[i] = Column{Status: st, Orders: []Order{}}
		pos[st] = i
	}
	for _, o := range list {
		if i, ok := pos[o.Status]; ok {
			board.Columns[i].Orders = append(board.Columns[i].Orders, o)
		}
	}
	return board
}

// ETag formats a board version as a strong entity tag.
func ETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func (s *Service) bump(ctx context.Context, businessID string) {
	if s.versions == nil {
		return
	}
	if _, err := s.versions.Bump(ctx, businessID); err != nil {
		s.logger.Warn("bump board version", slog.String("business_id", businessID), slog.Any("error", err))
	}
}

func (s *Service) business(ctx context.Context, businessID string) (businesses.Business, bool) {
	b, err := s.businesses.Get(ctx, businessID)
	if err != nil {
		s.logger.Error("load business for webhook", slog.String("business_id", businessID), slog.Any("error", err))
		return businesses.Business{}, false
	}
	return b, true
}

func (s *Service) notify(ctx context.Context, url string, p webhook.Payload) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, url, p)
	}
}

func (s *Service) observeInvoice(result string) {
	if s.metrics != nil {
		s.metrics.ObserveInvoice(result)
	}
}

func snapshot(o Order) webhook.OrderSnapshot {
	return webhook.OrderSnapshot{
		ID:                o.ID,
		BusinessID:        o.BusinessID,
		CustomerID:        o.CustomerID,
		Status:            string(o.Status),
		Total:             o.Total,
		PaymentMethod:     o.PaymentMethod,
		Source:            o.Source,
		EstimatedWaitTime: o.EstimatedWaitTime,
		CreatedAt:         o.CreatedAt,
	}
}

func webhookItems(items []Item) []webhook.Item {
	out := make([]webhook.Item, 0, len(items))
	for _, it := range items {
		out = append(out, webhook.Item{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsClientError reports whether err was caused by the request rather than
// the system.
func IsClientError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrUnknownProduct) ||
		errors.Is(err, ErrInvalidWaitTime)
}
