package customers

import "time"

// Status tracks whether the customer can receive deliveries.
type Status string

const (
	StatusActive         Status = "active"
	StatusWaitingAddress Status = "waiting_address"
	StatusArchived       Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusWaitingAddress, StatusArchived:
		return true
	}
	return false
}

// StatusForAddress is the status a new customer starts with.
func StatusForAddress(address string) Status {
	if address == "" {
		return StatusWaitingAddress
	}
	return StatusActive
}

// Customer is a tenant's client, unique by phone within the business.
type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Notes      string    `json:"notes"`
	Email      string    `json:"email"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
