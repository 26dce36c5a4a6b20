package orders

import "time"

// LineInput is one dashboard order line.
type LineInput struct {
	ProductID string `form:"product_id" validate:"required,uuid"`
	Quantity  int    `form:"quantity" validate:"gte=1,lte=999"`
	Notes     string `form:"notes" validate:"max=500"`
}

// CreateInput is a dashboard order.
type CreateInput struct {
	CustomerID    string      `form:"customer_id" validate:"omitempty,uuid"`
	PaymentMethod string      `form:"payment_method" validate:"omitempty,oneof=cash transfer card"`
	Items         []LineInput `form:"items" validate:"required,min=1,dive"`
}

// IntakeCustomer identifies who placed a REST order.
type IntakeCustomer struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"required,max=50"`
	Address string `json:"address" validate:"max=500"`
}

// IntakeItem is a REST order line. Name and price come from the caller.
type IntakeItem struct {
	ID       string  `json:"id" validate:"omitempty,uuid"`
	Name     string  `json:"name" validate:"required,max=200"`
	Quantity int     `json:"quantity" validate:"gte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
	Notes    string  `json:"notes" validate:"max=500"`
}

// IntakeInput is an order received through the REST API.
type IntakeInput struct {
	Customer IntakeCustomer `json:"customer"`
	Items    []IntakeItem   `json:"items" validate:"required,min=1,dive"`
	Total    float64        `json:"total" validate:"gte=0"`
	Status   string         `json:"status" validate:"omitempty,oneof=pending preparation ready delivered cancelled"`
	Source   string         `json:"source" validate:"max=50"`
}

// ListFilter narrows an order listing. A zero Date means all days.
type ListFilter struct {
	Status Status
	Date   time.Time
	Limit  int
	Offset int
}
