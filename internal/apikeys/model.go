package apikeys

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefix marks keys issued by this service.
const Prefix = "rk_"

var (
	ErrInvalidKey = errors.New("invalid api key")
	ErrNotFound   = errors.New("api key not found")
)

// APIKey authenticates REST calls on behalf of a business.
type APIKey struct {
	ID         string     `json:"id"`
	BusinessID string     `json:"businessId"`
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

// Masked hides all but the edges of the key.
func (k APIKey) Masked() string {
	if len(k.Key) <= 10 {
		return strings.Repeat("•", len(k.Key))
	}
	return k.Key[:7] + "…" + k.Key[len(k.Key)-4:]
}

// NewKey returns rk_ followed by 32 random hex characters.
func NewKey() string {
	return Prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
