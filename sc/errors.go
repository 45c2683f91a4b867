package sc

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError is returned when a field fails its type, shape, or choice
// constraint. It is always raised before any request is sent.
type ValidationError struct {
	Field   string
	Value   interface{}
	Choices []string
}

func (e *ValidationError) Error() string {
	if len(e.Choices) > 0 {
		return fmt.Sprintf("%s: invalid value %v, must be one of: %s",
			e.Field, e.Value, strings.Join(e.Choices, ", "))
	}
	return fmt.Sprintf("%s: invalid value %v", e.Field, e.Value)
}

// APIError carries a non-2xx response from SecurityCenter. It is never
// caught or reinterpreted by this library.
type APIError struct {
	StatusCode int
	ErrorCode  int
	ErrorMsg   string
	Body       string
}

func (e *APIError) Error() string {
	if e.ErrorMsg != "" {
		return fmt.Sprintf("securitycenter: %d: %s", e.StatusCode, e.ErrorMsg)
	}
	return fmt.Sprintf("securitycenter: request failed with status %d", e.StatusCode)
}

// IsNotFound reports whether err is an APIError for a missing resource.
// SecurityCenter answers either 404 or 403 for an unknown id depending on
// the endpoint.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound ||
			apiErr.StatusCode == http.StatusForbidden
	}
	return false
}
