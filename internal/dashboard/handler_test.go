package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guruweb/resto/internal/cashregister"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/platform/db"
)

type failingRegisters struct{}

func (failingRegisters) Current(ctx context.Context, businessID string) (cashregister.Register, error) {
	return cashregister.Register{}, errors.New("connection refused")
}

func (failingRegisters) Summarize(ctx context.Context, businessID, id string) (cashregister.Summary, error) {
	return cashregister.Summary{}, nil
}

func setup(t *testing.T) (*Handler, *orders.MemoryRepository, *cashregister.Service) {
	t.Helper()
	now := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo := orders.NewMemoryRepository()
	repo.SetClock(clock)
	orderSvc := orders.NewService(repo, db.NoopTransactor{}, orders.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    clock,
	})
	registers := cashregister.NewService(cashregister.NewMemoryRepository(clock), db.NoopTransactor{}, repo, clock)

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), orderSvc, registers, nil, 0)
	h.now = clock
	return h, repo, registers
}

func place(t *testing.T, repo *orders.MemoryRepository, status orders.Status, total float64) {
	t.Helper()
	_, err := repo.Create(context.Background(), orders.Order{
		BusinessID:    "b1",
		Status:        status,
		Total:         total,
		PaymentMethod: orders.PaymentCash,
		Source:        orders.SourceWeb,
	})
	require.NoError(t, err)
}

func TestLoadWithoutOpenRegister(t *testing.T) {
	h, repo, _ := setup(t)
	place(t, repo, orders.StatusPending, 3000)
	place(t, repo, orders.StatusReady, 2000)
	place(t, repo, orders.StatusCancelled, 9000)

	got, err := h.Load(context.Background(), "b1")
	require.NoError(t, err)
	assert.Nil(t, got.Register)
	assert.Equal(t, 2, got.Board.Count())
	assert.InDelta(t, 5000, got.TodaySales, 0.001)
	assert.Equal(t, 10*time.Second, got.PollInterval)
}

func TestLoadSummarizesOpenRegister(t *testing.T) {
	h, repo, registers := setup(t)
	_, err := registers.Open(context.Background(), "b1", "u1", cashregister.OpenInput{InitialAmount: 1000})
	require.NoError(t, err)
	place(t, repo, orders.StatusDelivered, 2500)

	got, err := h.Load(context.Background(), "b1")
	require.NoError(t, err)
	require.NotNil(t, got.Register)
	assert.InDelta(t, 1000, got.Register.Register.InitialAmount, 0.001)
}

func TestLoadPropagatesRegisterErrors(t *testing.T) {
	h, _, _ := setup(t)
	h.registers = failingRegisters{}

	_, err := h.Load(context.Background(), "b1")
	assert.Error(t, err)
}
