package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyPayload is returned when a 2xx response carries no data
var ErrEmptyPayload = errors.New("response has no data")

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ErrorMessage returns the text to show for err: the backend's message
// for API errors, the transport error text otherwise.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// messageFrom extracts "message" from an error body. Both the flat
// {"message": ...} shape and the nested {"error": {"message": ...}} shape
// are understood.
func messageFrom(body []byte, status int) string {
	var flat struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil {
		if flat.Message != "" {
			return flat.Message
		}
		var nested struct {
			Message string `json:"message"`
		}
		if len(flat.Error) > 0 && json.Unmarshal(flat.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if len(flat.Error) > 0 && json.Unmarshal(flat.Error, &plain) == nil && plain != "" {
			return plain
		}
	}
	return fmt.Sprintf("request failed with status code %d", status)
}
