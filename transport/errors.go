package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError wraps a transport-level failure: no response was received.
// These are never retried.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a response with an error status. Payload carries the backend's
// body verbatim so callers can surface the server-provided message.
type HTTPError struct {
	Status  int
	Payload []byte
}

func (e *HTTPError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("http %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

// Message extracts the backend-provided text from the payload, if any.
// Backends in scope respond with either {"message": ...} or {"error": ...}.
func (e *HTTPError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Payload, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// ErrorMessage returns the backend-provided message for err when present,
// else the supplied fallback.
func ErrorMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if msg := httpErr.Message(); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == status
}
