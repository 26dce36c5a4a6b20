package cashregister

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
	rows map[string]Register
	now  func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository stamping rows with now.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{rows: map[string]Register{}, now: now}
}

func (m *MemoryRepository) Current(ctx context.Context, businessID string) (Register, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.BusinessID == businessID && r.IsOpen() {
			return r, nil
		}
	}
	return Register{}, ErrNoOpenRegister
}

func (m *MemoryRepository) Get(ctx context.Context, businessID, id string) (Register, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.BusinessID != businessID {
		return Register{}, ErrNotFound
	}
	return r, nil
}

func (m *MemoryRepository) Open(ctx context.Context, r Register) (Register, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.BusinessID == r.BusinessID && existing.IsOpen() {
			return Register{}, ErrRegisterAlreadyOpen
		}
	}
	r.ID = uuid.NewString()
	r.OpeningTime = m.now()
	r.Status = StatusOpen
	m.rows[r.ID] = r
	return r, nil
}

func (m *MemoryRepository) Close(ctx context.Context, r Register) (Register, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.rows[r.ID]
	if !ok || existing.BusinessID != r.BusinessID || !existing.IsOpen() {
		return Register{}, ErrNoOpenRegister
	}
	r.Status = StatusClosed
	m.rows[r.ID] = r
	return r, nil
}

func (m *MemoryRepository) History(ctx context.Context, businessID string, limit int) ([]Register, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Register
	for _, r := range m.rows {
		if r.BusinessID == businessID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpeningTime.After(out[j].OpeningTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
