package apikeys

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for tests and tooling.
type MemoryRepository struct {
	mu     sync.Mutex
	keys   map[string]APIKey
	legacy map[string]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{keys: map[string]APIKey{}, legacy: map[string]string{}}
}

// SetLegacy registers key as the businesses.api_key of businessID.
func (m *MemoryRepository) SetLegacy(businessID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legacy[key] = businessID
}

func (m *MemoryRepository) Touch(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, k := range m.keys {
		if k.Key == key && k.IsActive {
			now := time.Now()
			k.LastUsedAt = &now
			m.keys[id] = k
			return k.BusinessID, nil
		}
	}
	return "", ErrInvalidKey
}

func (m *MemoryRepository) LegacyBusiness(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.legacy[key]; ok {
		return id, nil
	}
	return "", ErrInvalidKey
}

func (m *MemoryRepository) Create(ctx context.Context, k APIKey) (APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k.ID = uuid.NewString()
	k.CreatedAt = time.Now()
	m.keys[k.ID] = k
	return k, nil
}

func (m *MemoryRepository) List(ctx context.Context, businessID string) ([]APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []APIKey
	for _, k := range m.keys {
		if k.BusinessID == businessID {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepository) Revoke(ctx context.Context, businessID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[id]
	if !ok || k.BusinessID != businessID {
		return ErrNotFound
	}
	k.IsActive = false
	m.keys[id] = k
	return nil
}
