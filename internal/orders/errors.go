package orders

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrUnknownProduct    = errors.New("product not available")
	ErrInvalidWaitTime   = errors.New("estimated wait time must be between 1 and 240 minutes")
	ErrAlreadyInvoiced   = errors.New("order already invoiced")
	ErrAFIPNotConfigured = errors.New("AFIP not configured")
)
