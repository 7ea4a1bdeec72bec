package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStaleBatch is returned when a result belongs to a query that has
	// since been superseded by a newer search.
	ErrStaleBatch = errors.New("stale batch: a newer rate query has started")
)

// ErrValidation blocks a request before any outbound call is made.
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

// VendorError is the failure reason recorded against one courier.
// Retryable marks transient failures that exhausted the retry budget.
type VendorError struct {
	Vendor     string
	StatusCode int
	Retryable  bool
	Message    string
}

func (e *VendorError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s returned %d: %s", e.Vendor, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Vendor, e.Message)
}

// ErrSubmit carries the backend's message for a failed order write. Op
// names the write and defaults to "submission".
type ErrSubmit struct {
	Op         string
	Message    string
	StatusCode int
}

func (e *ErrSubmit) Error() string {
	op := e.Op
	if op == "" {
		op = "submission"
	}
	return fmt.Sprintf("order %s failed: %s", op, e.Message)
}

type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid flow transition from %s to %s", e.From, e.To)
}

// HTTPStatus maps a service error to the status code sent to the dashboard.
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		submitErr     *ErrSubmit
		transitionErr *ErrInvalidTransition
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStaleBatch), errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.As(err, &submitErr):
		if submitErr.StatusCode >= 400 && submitErr.StatusCode < 500 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
