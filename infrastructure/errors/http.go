// Package errors holds error helpers shared by the quality engine's outbound clients.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	minErrorStatus  = 400
	minServerStatus = 500
	maxErrorBody    = 4096
)

// HTTPError is a non-2xx response from a collaborator.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= minServerStatus || e.StatusCode == http.StatusTooManyRequests
}

// ParseHTTPError returns nil for successful responses and an *HTTPError
// otherwise, using the "error" or "message" field of a JSON body when present.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < minErrorStatus {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{StatusCode: resp.StatusCode, Message: "unreadable body"}
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := string(body)
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

// StatusCode extracts the status of an *HTTPError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
