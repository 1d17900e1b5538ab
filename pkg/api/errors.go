package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the API. The original status code is
// preserved so callers can distinguish a rejected credential from other
// failures; retries are never attempted at this layer.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: server returned %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsAuthFailure reports whether err is a 401 from the server, i.e. the
// credential (or the submitted login) was rejected.
func IsAuthFailure(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
