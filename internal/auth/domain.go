package auth

import (
	"time"

	"github.com/guruweb/resto/internal/shared"
)

// User represents a dashboard account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	BusinessID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal returns the session identity of the user.
func (u User) Principal() shared.Principal {
	return shared.Principal{
		UserID:     u.ID,
		BusinessID: u.BusinessID,
		Role:       u.Role,
		Name:       u.Name,
	}
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Email      string      `validate:"required,email"`
	Name       string      `validate:"max=200"`
	Password   string      `validate:"required,min=8"`
	Role       shared.Role `validate:"required,oneof=super_admin business_admin user"`
	BusinessID string
}
