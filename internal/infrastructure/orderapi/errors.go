package orderapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/orderdesk/backend/internal/domain/shared"
)

const unavailableMessage = "The order service is unreachable"

// APIError is a failed remote call. It unwraps to a shared.DomainError so
// handlers map it like any other domain failure.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.cause)
		}
		return fmt.Sprintf("%s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s: remote returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Code is the domain error code for the failure.
func (e *APIError) Code() string {
	switch {
	case e.StatusCode == 0:
		return shared.ErrUpstreamDown.Code
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound.Code
	case e.StatusCode == http.StatusConflict || mentionsDuplicate(e.Message):
		return shared.ErrAlreadyExists.Code
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return shared.ErrInvalidInput.Code
	default:
		return shared.ErrUpstream.Code
	}
}

// Unwrap exposes the domain error carrying the user-facing message.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.NewDomainError(e.Code(), e.Message)}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func mentionsDuplicate(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "duplicate") || strings.Contains(m, "already exists")
}

// errorPayload is the remote API's error body; either field may be used.
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(operation string, status int, body []byte) *APIError {
	msg := ""
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = strings.TrimSpace(payload.Error)
		}
	}
	if msg == "" {
		msg = defaultMessage(status)
	}
	return &APIError{Operation: operation, StatusCode: status, Message: msg}
}

func defaultMessage(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "The requested record no longer exists"
	case status >= 500:
		return "The order service failed to process the request"
	default:
		return fmt.Sprintf("The order service rejected the request (%d)", status)
	}
}
