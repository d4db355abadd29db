package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/moodjournal/internal/common"
)

// APIError is a non-2xx response. It unwraps to the matching sentinel in
// common so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return common.ErrorValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ErrorUnauthorized
	case http.StatusConflict:
		return common.ErrorAlreadyExists
	case http.StatusTooManyRequests:
		return common.ErrorRateLimited
	case http.StatusNotImplemented:
		return common.ErrorNotConfigured
	default:
		return common.ErrorInternal
	}
}

// IsSessionRejected reports whether err means the server refused the bearer
// token (401 or 403).
func IsSessionRejected(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden
}

func newAPIError(resp *http.Response) *APIError {
	e := &APIError{Status: resp.StatusCode}

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(b, &body) == nil {
		e.Message = body.Error
		e.Fields = body.Fields
	}
	return e
}
