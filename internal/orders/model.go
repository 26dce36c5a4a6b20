package orders

import (
	"fmt"
	"strings"
	"time"
)

// Status is the kanban column an order sits in.
type Status string

const (
	StatusPending     Status = "pending"
	StatusPreparation Status = "preparation"
	StatusReady       Status = "ready"
	StatusDelivered   Status = "delivered"
	StatusCancelled   Status = "cancelled"
)

// BoardStatuses are the kanban columns, left to right.
var BoardStatuses = []Status{StatusPending, StatusPreparation, StatusReady, StatusDelivered}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparation, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts raw into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Payment methods accepted at the counter.
const (
	PaymentCash     = "cash"
	PaymentTransfer = "transfer"
	PaymentCard     = "card"
)

// Order sources.
const (
	SourceWeb      = "web"
	SourceWhatsApp = "whatsapp"
)

// Item is one order line. Name and price are snapshots taken at order time.
type Item struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Notes     string  `json:"notes,omitempty"`
}

// Subtotal is price times quantity.
func (i Item) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Invoice holds the AFIP authorization stored on an order.
type Invoice struct {
	CAE           string    `json:"cae"`
	CAEExpiration time.Time `json:"caeExpiration"`
	Number        int64     `json:"number"`
	Type          int       `json:"type"`
	PointOfSale   int       `json:"pointOfSale"`
	InvoicedAt    time.Time `json:"invoicedAt"`
}

// Order is a customer order with its lines.
type Order struct {
	ID                string    `json:"id"`
	BusinessID        string    `json:"businessId"`
	CustomerID        string    `json:"customerId,omitempty"`
	CustomerName      string    `json:"customerName,omitempty"`
	CustomerPhone     string    `json:"customerPhone,omitempty"`
	CustomerAddress   string    `json:"customerAddress,omitempty"`
	Status            Status    `json:"status"`
	Total             float64   `json:"total"`
	PaymentMethod     string    `json:"paymentMethod"`
	Source            string    `json:"source"`
	EstimatedWaitTime *int      `json:"estimatedWaitTime"`
	Invoice           *Invoice  `json:"invoice,omitempty"`
	Items             []Item    `json:"items"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Invoiced reports whether AFIP already authorized a voucher for the order.
func (o Order) Invoiced() bool {
	return o.Invoice != nil && o.Invoice.CAE != ""
}

// StatusChange is the outcome of a kanban move.
type StatusChange struct {
	OrderID      string `json:"orderId"`
	Status       Status `json:"status"`
	NeedsInvoice bool   `json:"needsInvoice"`
}

// Column is one kanban column.
type Column struct {
	Status Status  `json:"status"`
	Orders []Order `json:"orders"`
}

// Board is the live kanban of a business.
type Board struct {
	Version int64    `json:"version"`
	Columns []Column `json:"columns"`
}

// Count returns the number of orders on the board.
func (b Board) Count() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Orders)
	}
	return n
}

// TicketKind selects the printable layout of an order.
type TicketKind string

const (
	TicketCustomer TicketKind = "ticket"
	TicketKitchen  TicketKind = "comanda"
)
