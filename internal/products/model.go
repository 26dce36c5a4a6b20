package products

import "time"

// Product is a menu item of a business.
type Product struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the editable part of a product.
type Input struct {
	Name        string  `form:"name" validate:"required,max=200"`
	Description string  `form:"description" validate:"max=1000"`
	Price       float64 `form:"price" validate:"gte=0"`
	Category    string  `form:"category" validate:"max=100"`
}

// ListFilter narrows a product listing.
type ListFilter struct {
	Category      string
	OnlyAvailable bool
}
