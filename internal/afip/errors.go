package afip

import (
	"errors"
	"fmt"
)

// ErrRejected marks a CAE request AFIP answered with result "R".
var ErrRejected = errors.New("AFIP rejected")

// RejectionError carries the first observation AFIP attached to a rejection.
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("AFIP rejected: %s", e.Message)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// HTTPError is a non-2xx answer from afipsdk.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("afipsdk status %d", e.Status)
	}
	return fmt.Sprintf("afipsdk status %d: %s", e.Status, e.Body)
}
