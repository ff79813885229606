package kontent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx outcome from the Management API.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("management api (status %d, code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("management api (status %d)", e.StatusCode)
}

// parseAPIError builds an APIError from a response body. The error schema is
// not modelled in full; gjson pulls the fields the toolkit reports.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if len(body) == 0 {
		return apiErr
	}
	apiErr.Message = gjson.GetBytes(body, "message").String()
	apiErr.ErrorCode = int(gjson.GetBytes(body, "error_code").Int())
	apiErr.RequestID = gjson.GetBytes(body, "request_id").String()

	// Validation errors carry the useful detail one level down.
	if details := gjson.GetBytes(body, "validation_errors.#.message"); details.Exists() {
		var parts []string
		details.ForEach(func(_, v gjson.Result) bool {
			parts = append(parts, v.String())
			return true
		})
		if len(parts) > 0 {
			apiErr.Message = apiErr.Message + " (" + strings.Join(parts, "; ") + ")"
		}
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 outcome. Callers treat it as
// "entity absent", not as a failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsVariantNotPublished reports whether err is the domain error returned
// when unpublishing a variant that is not published. The archive transition
// tolerates exactly this error and no other.
func IsVariantNotPublished(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode != 400 {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "not published")
}
