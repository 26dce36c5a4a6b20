package cashregister

import (
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("cash register not found")
	ErrRegisterAlreadyOpen = errors.New("there is already an open cash register")
	ErrNoOpenRegister      = errors.New("no open cash register found")
)

// Status of a register session.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Register is one cash drawer session, from opening to closing.
type Register struct {
	ID                    string
	BusinessID            string
	OpenedByID            string
	ClosedByID            string
	OpeningTime           time.Time
	ClosingTime           *time.Time
	InitialAmount         float64
	FinalAmountCalculated *float64
	FinalAmountActual     *float64
	Notes                 string
	Status                Status
}

// IsOpen reports whether the session is still running.
func (r Register) IsOpen() bool { return r.Status == StatusOpen }

// Difference is counted cash minus expected cash. Zero while open.
func (r Register) Difference() float64 {
	if r.FinalAmountActual == nil || r.FinalAmountCalculated == nil {
		return 0
	}
	return *r.FinalAmountActual - *r.FinalAmountCalculated
}

// OpenInput starts a session.
type OpenInput struct {
	InitialAmount float64 `form:"initial_amount" validate:"gte=0"`
	Notes         string  `form:"notes" validate:"max=1000"`
}

// CloseInput ends the open session with the counted cash.
type CloseInput struct {
	ActualAmount float64 `form:"actual_amount" validate:"gte=0"`
	Notes        string  `form:"notes" validate:"max=1000"`
}
