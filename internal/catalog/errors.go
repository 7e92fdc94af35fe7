package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for remote catalog operations.
//
// ErrRateLimited, ErrServer, and ErrNetwork are retryable and are retried
// internally by the client; they escape only once retries are exhausted.
// ErrInvalidResponse is a contract defect and is never retried.
var (
	ErrRateLimited     = errors.New("catalog: rate limited by server")
	ErrServer          = errors.New("catalog: server error")
	ErrNetwork         = errors.New("catalog: network error")
	ErrInvalidResponse = errors.New("catalog: invalid response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op       string // Operation: "fetchPage"
	Endpoint string
	Page     int
	Err      error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("catalog %s [%s page %d]: %v", e.Op, e.Endpoint, e.Page, e.Err)
	}
	return fmt.Sprintf("catalog %s [%s]: %v", e.Op, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, endpoint string, page int, err error) error {
	return &Error{
		Op:       op,
		Endpoint: endpoint,
		Page:     page,
		Err:      err,
	}
}

// Retryable reports whether an error is worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrServer) ||
		errors.Is(err, ErrNetwork)
}
