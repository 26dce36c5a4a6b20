package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]Order
	now  func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[string]Order{}, now: time.Now}
}

// SetClock overrides the timestamps given to new and updated rows.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt = m.now()
	o.UpdatedAt = o.CreatedAt
	items := make([]Item, len(o.Items))
	for i, it := range o.Items {
		it.ID = uuid.NewString()
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	m.rows[o.ID] = o
	return o, nil
}

func (m *MemoryRepository) Get(ctx context.Context, businessID, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok || o.BusinessID != businessID {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryRepository) List(ctx context.Context, businessID string, filter ListFilter) ([]Order, int, error) {
	list := m.filter(func(o Order) bool {
		if o.BusinessID != businessID {
			return false
		}
		if filter.Status != "" && o.Status != filter.Status {
			return false
		}
		if !filter.Date.IsZero() {
			from, to := DayBounds(filter.Date)
			if o.CreatedAt.Before(from) || !o.CreatedAt.Before(to) {
				return false
			}
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	total := len(list)
	if filter.Offset >= len(list) {
		return []Order{}, total, nil
	}
	list = list[filter.Offset:]
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, total, nil
}

func (m *MemoryRepository) Board(ctx context.Context, businessID string, deliveredSince time.Time) ([]Order, error) {
	list := m.filter(func(o Order) bool {
		if o.BusinessID != businessID {
			return false
		}
		switch o.Status {
		case StatusPending, StatusPreparation, StatusReady:
			return true
		case StatusDelivered:
			return !o.UpdatedAt.Before(deliveredSince)
		}
		return false
	})
	sortByCreated(list)
	return list, nil
}

func (m *MemoryRepository) Between(ctx context.Context, businessID string, from, to time.Time) ([]Order, error) {
	list := m.filter(func(o Order) bool {
		return o.BusinessID == businessID && !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	})
	sortByCreated(list)
	return list, nil
}

func (m *MemoryRepository) SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error) {
	list, _ := m.Between(ctx, businessID, from, to)
	var total float64
	for _, o := range list {
		if o.Status != StatusCancelled {
			total += o.Total
		}
	}
	return total, nil
}

func (m *MemoryRepository) SetStatus(ctx context.Context, businessID, id string, status Status) error {
	return m.update(businessID, id, func(o *Order) error {
		o.Status = status
		return nil
	})
}

func (m *MemoryRepository) Confirm(ctx context.Context, businessID, id string, minutes int) error {
	return m.update(businessID, id, func(o *Order) error {
		o.Status = StatusPreparation
		o.EstimatedWaitTime = &minutes
		return nil
	})
}

func (m *MemoryRepository) SaveInvoice(ctx context.Context, businessID, id string, inv Invoice) error {
	return m.update(businessID, id, func(o *Order) error {
		if o.Invoiced() {
			return ErrAlreadyInvoiced
		}
		o.Invoice = &inv
		return nil
	})
}

func (m *MemoryRepository) update(businessID, id string, fn func(*Order) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok || o.BusinessID != businessID {
		return ErrNotFound
	}
	if err := fn(&o); err != nil {
		return err
	}
	o.UpdatedAt = m.now()
	m.rows[id] = o
	return nil
}

func (m *MemoryRepository) filter(keep func(Order) bool) []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.rows {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

func sortByCreated(list []Order) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
}
