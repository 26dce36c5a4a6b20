package customers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for tests and tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]Customer
	now  func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Customer{}, now: time.Now}
}

func (m *MemoryRepository) Get(ctx context.Context, businessID, id string) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.BusinessID != businessID {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *MemoryRepository) FindByPhone(ctx context.Context, businessID, phone string) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.BusinessID == businessID && c.Phone == phone {
			return c, nil
		}
	}
	return Customer{}, ErrNotFound
}

func (m *MemoryRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phoneTaken(c.BusinessID, c.Phone, "") {
		return Customer{}, ErrAlreadyExists
	}
	c.ID = uuid.NewString()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.rows[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) Update(ctx context.Context, c Customer) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rows[c.ID]
	if !ok || current.BusinessID != c.BusinessID {
		return Customer{}, ErrNotFound
	}
	if m.phoneTaken(c.BusinessID, c.Phone, c.ID) {
		return Customer{}, ErrAlreadyExists
	}
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = m.now()
	m.rows[c.ID] = c
	return c, nil
}

func (m *MemoryRepository) Search(ctx context.Context, businessID, query string, limit int) ([]Customer, error) {
	list, _, _ := m.List(ctx, businessID, ListFilter{Query: query})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(filter.Query)
	var out []Customer
	for _, c := range m.rows {
		if c.BusinessID != businessID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := len(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, total, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *MemoryRepository) phoneTaken(businessID, phone, exceptID string) bool {
	for id, c := range m.rows {
		if id != exceptID && c.BusinessID == businessID && c.Phone == phone {
			return true
		}
	}
	return false
}
