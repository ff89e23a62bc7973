package oddsapi

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates an invalid API key. It is fatal: the client
// never retries a 401.
var ErrUnauthorized = errors.New("odds api: invalid api key")

// APIError represents a non-success response from the odds API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("odds api: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsRateLimited reports whether the error is a rate-limit response that
// survived the client's retries.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}
