package webhook

import "time"

// Event names sent in the "event" field.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderConfirmed     = "order_confirmed"
	EventOrderReceived      = "order_received"
)

// Payload is any JSON body posted to a webhook URL.
type Payload interface {
	EventName() string
}

// Customer identifies the recipient of a WhatsApp notification.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

// Item is the short form of an order line.
type Item struct {
	ProductID string  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderSnapshot is the order as reported to order.created listeners.
type OrderSnapshot struct {
	ID                string    `json:"id"`
	BusinessID        string    `json:"businessId"`
	CustomerID        string    `json:"customerId,omitempty"`
	Status            string    `json:"status"`
	Total             float64   `json:"total"`
	PaymentMethod     string    `json:"paymentMethod"`
	Source            string    `json:"source"`
	EstimatedWaitTime *int      `json:"estimatedWaitTime"`
	CreatedAt         time.Time `json:"createdAt"`
}

// OrderCreated fires when staff create an order from the dashboard.
type OrderCreated struct {
	Event string        `json:"event"`
	Order OrderSnapshot `json:"order"`
	Items []Item        `json:"items"`
}

// NewOrderCreated builds an order.created payload.
func NewOrderCreated(order OrderSnapshot, items []Item) OrderCreated {
	return OrderCreated{Event: EventOrderCreated, Order: order, Items: items}
}

func (OrderCreated) EventName() string { return EventOrderCreated }

// StatusUpdated fires on every kanban move.
type StatusUpdated struct {
	Event   string `json:"event"`
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// NewStatusUpdated builds an order.status_updated payload.
func NewStatusUpdated(orderID, status string) StatusUpdated {
	return StatusUpdated{Event: EventOrderStatusUpdated, OrderID: orderID, Status: status}
}

func (StatusUpdated) EventName() string { return EventOrderStatusUpdated }

// OrderConfirmed tells the customer how long the order will take.
type OrderConfirmed struct {
	Event             string   `json:"event"`
	OrderID           string   `json:"orderId"`
	Customer          Customer `json:"customer"`
	Status            string   `json:"status"`
	EstimatedWaitTime int      `json:"estimatedWaitTime"`
	Message           string   `json:"message"`
}

func (OrderConfirmed) EventName() string { return EventOrderConfirmed }

// OrderReceived acknowledges an order taken through the REST API.
type OrderReceived struct {
	Event             string   `json:"event"`
	OrderID           string   `json:"orderId"`
	Customer          Customer `json:"customer"`
	Items             []Item   `json:"items"`
	Total             float64  `json:"total"`
	Status            string   `json:"status"`
	EstimatedWaitTime *int     `json:"estimatedWaitTime"`
	Message           string   `json:"message"`
}

// ReceivedMessage is the holding reply sent before the kitchen confirms.
const ReceivedMessage = "ok, ya te digo cuanto va a demorar"

func (OrderReceived) EventName() string { return EventOrderReceived }
