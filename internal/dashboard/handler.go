// Package dashboard serves the landing page of the back office: the live
// kanban plus the state of the cash register.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/guruweb/resto/internal/cashregister"
	"github.com/guruweb/resto/internal/orders"
	"github.com/guruweb/resto/internal/shared"
	"github.com/guruweb/resto/internal/view"
)

// BoardSource loads the kanban and the day's sales.
type BoardSource interface {
	LiveBoard(ctx context.Context, businessID string) (orders.Board, error)
	SalesTotal(ctx context.Context, businessID string, from, to time.Time) (float64, error)
}

// RegisterSource reports the open cash register.
type RegisterSource interface {
	Current(ctx context.Context, businessID string) (cashregister.Register, error)
	Summarize(ctx context.Context, businessID, id string) (cashregister.Summary, error)
}

// Overview is everything the home page shows.
type Overview struct {
	Board        orders.Board
	TodaySales   float64
	Register     *cashregister.Summary
	PollInterval time.Duration
}

// Handler serves GET /dashboard.
type Handler struct {
	logger       *slog.Logger
	board        BoardSource
	registers    RegisterSource
	render       *view.Renderer
	pollInterval time.Duration
	now          func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, board BoardSource, registers RegisterSource, render *view.Renderer, pollInterval time.Duration) *Handler {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &Handler{
		logger:       logger,
		board:        board,
		registers:    registers,
		render:       render,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Home)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	businessID, _ := shared.TenantFromContext(r.Context())
	overview, err := h.Load(r.Context(), businessID)
	if err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err))
		http.Error(w, "No se pudo cargar el tablero", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, http.StatusOK, "dashboard", "Tablero", overview)
}

// Load fans out the board, the day's sales and the register summary.
// A missing open register is not an error.
func (h *Handler) Load(ctx context.Context, businessID string) (Overview, error) {
	out := Overview{PollInterval: h.pollInterval}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		board, err := h.board.LiveBoard(gctx, businessID)
		out.Board = board
		return err
	})
	g.Go(func() error {
		from, to := orders.DayBounds(h.now())
		total, err := h.board.SalesTotal(gctx, businessID, from, to)
		out.TodaySales = total
		return err
	})
	g.Go(func() error {
		current, err := h.registers.Current(gctx, businessID)
		if errors.Is(err, cashregister.ErrNoOpenRegister) {
			return nil
		}
		if err != nil {
			return err
		}
		sum, err := h.registers.Summarize(gctx, businessID, current.ID)
		if err != nil {
			return err
		}
		out.Register = &sum
		return nil
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
