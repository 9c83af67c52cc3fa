package clienterr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means an authenticated call was attempted without a
	// valid token, or the backend rejected the token with 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStockLimitExceeded is a local pre-check rejection. No HTTP call is
	// made when this is returned.
	ErrStockLimitExceeded = errors.New("stock limit exceeded")

	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")

	// ErrNetwork covers transport-level failures: DNS, connect, timeout.
	ErrNetwork = errors.New("network error")
)

// APIError is a non-401 HTTP error response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsServerError reports whether err is a 5xx backend response.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}
