package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidURL     = errors.New("apiclient: invalid url")
	ErrEncodeRequest  = errors.New("apiclient: failed to encode request body")
	ErrDecodeResponse = errors.New("apiclient: failed to decode response body")
	ErrTransport      = errors.New("apiclient: request failed")
)

// APIError is returned for every non-2xx response once the retry policy is
// exhausted. Fields come from the {"error": {...}} envelope when present.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.Status == http.StatusForbidden }
func (e *APIError) IsConflict() bool     { return e.Status == http.StatusConflict }
func (e *APIError) IsValidation() bool   { return e.Status == http.StatusUnprocessableEntity }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorEnvelope struct {
	Error *struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// newAPIError builds an APIError from a response body. Bodies that are not an
// error envelope, or not JSON at all, still produce an APIError.
func newAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{Status: status, RequestID: requestID}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Code = env.Error.Code
		if len(env.Error.Details) > 0 && string(env.Error.Details) != "null" {
			apiErr.Details = env.Error.Details
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = "API Error"
	}
	return apiErr
}
