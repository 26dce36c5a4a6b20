package products

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for tests and tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]Product
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Product{}}
}

func (m *MemoryRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.rows {
		if p.BusinessID != businessID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.OnlyAvailable && !p.IsAvailable {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MemoryRepository) Get(ctx context.Context, businessID, id string) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.BusinessID != businessID {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryRepository) GetMany(ctx context.Context, businessID string, ids []string) (map[string]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Product)
	for _, id := range ids {
		if p, ok := m.rows[id]; ok && p.BusinessID == businessID {
			out[id] = p
		}
	}
	return out, nil
}

func (m *MemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = p
	return p, nil
}

func (m *MemoryRepository) Update(ctx context.Context, p Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[p.ID]
	if !ok || cur.BusinessID != p.BusinessID {
		return Product{}, ErrNotFound
	}
	cur.Name, cur.Description, cur.Price, cur.Category = p.Name, p.Description, p.Price, p.Category
	cur.UpdatedAt = time.Now()
	m.rows[p.ID] = cur
	return cur, nil
}

func (m *MemoryRepository) SetAvailability(ctx context.Context, businessID, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok || cur.BusinessID != businessID {
		return ErrNotFound
	}
	cur.IsAvailable = available
	m.rows[id] = cur
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, businessID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[id]
	if !ok || cur.BusinessID != businessID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
