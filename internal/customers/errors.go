package customers

import "errors"

var (
	ErrNotFound      = errors.New("customer not found")
	ErrAlreadyExists = errors.New("customer already exists")
)

// DuplicateError reports the customer already registered under a phone.
type DuplicateError struct {
	Existing Customer
}

func (e *DuplicateError) Error() string {
	return "customer already exists with phone " + e.Existing.Phone
}

func (e *DuplicateError) Unwrap() error { return ErrAlreadyExists }
