package businesses

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guruweb/resto/internal/afip"
)

// MemoryRepository is an in-process Repository for tests and tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]Business
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Business{}}
}

// Put stores b as is, assigning an id when missing.
func (m *MemoryRepository) Put(b Business) Business {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	m.rows[b.ID] = b
	return b
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (Business, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return Business{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) Create(ctx context.Context, b Business) (Business, error) {
	b.AFIPEnvironment = afip.EnvironmentDev
	b.AFIPPuntoVenta = afip.DefaultPointOfSale
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	return m.Put(b), nil
}

func (m *MemoryRepository) UpdateProfile(ctx context.Context, id string, in ProfileInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range m.rows {
		if otherID != id && in.APIKey != "" && other.APIKey == in.APIKey {
			return ErrAPIKeyTaken
		}
	}
	b.Name, b.WebhookURL, b.WebhookStatusURL, b.APIKey = in.Name, in.WebhookURL, in.WebhookStatusURL, in.APIKey
	m.rows[id] = b
	return nil
}

func (m *MemoryRepository) UpdateAFIP(ctx context.Context, id string, in AFIPSettingsInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	b.AFIPCUIT, b.AFIPToken = in.CUIT, in.Token
	b.AFIPEnvironment = afip.Environment(in.Environment)
	b.AFIPPuntoVenta = in.PuntoVenta
	b.AFIPCertificate, b.AFIPPrivateKey = in.Certificate, in.PrivateKey
	m.rows[id] = b
	return nil
}
