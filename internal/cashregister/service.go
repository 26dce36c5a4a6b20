package cashregister

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/platform/db"
	"github.com/guruweb/resto/internal/shared"
)

// Sales reads the orders taken during a session.
type Sales interface {
	SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error)
	Between(ctx context.Context, businessID string, from, to time.Time) ([]orders.Order, error)
}

// Service opens and closes register sessions.
type Service struct {
	repo     Repository
	tx       db.Transactor
	sales    Sales
	now      func() time.Time
	validate *validator.Validate
}

// NewService constructs a Service. A nil now defaults to time.Now.
func NewService(repo Repository, tx db.Transactor, sales Sales, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, tx: tx, sales: sales, now: now, validate: shared.NewValidator()}
}

// Current returns the open session or ErrNoOpenRegister.
func (s *Service) Current(ctx context.Context, businessID string) (Register, error) {
	return s.repo.Current(ctx, businessID)
}

// Get returns one session.
func (s *Service) Get(ctx context.Context, businessID, id string) (Register, error) {
	return s.repo.Get(ctx, businessID, id)
}

// History returns the latest sessions, newest first.
func (s *Service) History(ctx context.Context, businessID string, limit int) ([]Register, error) {
	return s.repo.History(ctx, businessID, limit)
}

// Open starts a session. Only one session per business may be open.
func (s *Service) Open(ctx context.Context, businessID, userID string, in OpenInput) (Register, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := s.validate.Struct(in); err != nil {
		return Register{}, err
	}
	return s.repo.Open(ctx, Register{
		BusinessID:    businessID,
		OpenedByID:    userID,
		InitialAmount: roundMoney(in.InitialAmount),
		Notes:         in.Notes,
	})
}

// Close ends the open session. The expected cash is the initial amount
// plus every non-cancelled order created since the session opened.
func (s *Service) Close(ctx context.Context, businessID, userID string, in CloseInput) (Register, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := s.validate.Struct(in); err != nil {
		return Register{}, err
	}

	var closed Register
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.Current(ctx, businessID)
		if err != nil {
			return err
		}
		closingTime := s.now()
		sales, err := s.sales.SalesTotal(ctx, businessID, current.OpeningTime, closingTime)
		if err != nil {
			return fmt.Errorf("sum sales: %w", err)
		}
		calculated := roundMoney(current.InitialAmount + sales)
		actual := roundMoney(in.ActualAmount)

		current.ClosedByID = userID
		current.ClosingTime = &closingTime
		current.FinalAmountCalculated = &calculated
		current.FinalAmountActual = &actual
		if in.Notes != "" {
			current.Notes = in.Notes
		}
		closed, err = s.repo.Close(ctx, current)
		return err
	})
	if err != nil {
		return Register{}, err
	}
	return closed, nil
}

// Summary is the arithmetic of one session.
type Summary struct {
	Register   Register
	Orders     []orders.Order
	Sales      float64
	Expected   float64
	Difference float64
}

// Summarize loads the orders of a session and totals them. Open sessions
// are summarized up to now.
func (s *Service) Summarize(ctx context.Context, businessID, id string) (Summary, error) {
	reg, err := s.repo.Get(ctx, businessID, id)
	if err != nil {
		return Summary{}, err
	}
	end := s.now()
	if reg.ClosingTime != nil {
		end = *reg.ClosingTime
	}
	list, err := s.sales.Between(ctx, businessID, reg.OpeningTime, end)
	if err != nil {
		return Summary{}, fmt.Errorf("load session orders: %w", err)
	}
	sum := Summary{Register: reg, Orders: list}
	for _, o := range list {
		if o.Status != orders.StatusCancelled {
			sum.Sales += o.Total
		}
	}
	sum.Sales = roundMoney(sum.Sales)
	sum.Expected = roundMoney(reg.InitialAmount + sum.Sales)
	if reg.FinalAmountCalculated != nil {
		sum.Expected = *reg.FinalAmountCalculated
	}
	sum.Difference = roundMoney(reg.Difference())
	return sum, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
