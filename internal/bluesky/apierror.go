package bluesky

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/blackmichael/skygazer/internal/domain"
)

// APIError is a non-2xx XRPC response.
type APIError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Name != "" && e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Name, e.Message)
	} else if e.Name != "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Name)
	}
	return fmt.Sprintf("API error (status %d)", e.StatusCode)
}

// Is matches domain.ErrAuth for rejected sessions and domain.ErrTransport
// for every other failure.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrAuth:
		return e.auth()
	case domain.ErrTransport:
		return !e.auth()
	}
	return false
}

func (e *APIError) auth() bool {
	if e.StatusCode == http.StatusUnauthorized {
		return true
	}
	switch e.Name {
	case "ExpiredToken", "InvalidToken", "AuthenticationRequired", "AuthMissing":
		return true
	}
	return false
}

type errorBody struct {
	Name    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func decodeAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return &APIError{StatusCode: status}
	}
	return &APIError{StatusCode: status, Name: eb.Name, Message: eb.Message}
}
