package debrid

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredential is returned before any remote call when no API key
	// has been configured.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrNoPlaylist is returned when the remote service answered but offered
	// no usable streaming playlist.
	ErrNoPlaylist = errors.New("no streaming playlist available")

	// ErrInvalidInput marks arguments rejected before any remote call, such
	// as an empty identifier or link.
	ErrInvalidInput = errors.New("invalid input")
)

// InvalidContentError represents an upload payload rejected locally, such as a
// torrent file exceeding the size limit or one that is not valid bencode.
type InvalidContentError struct {
	Filename string // Name of the file that failed validation
	Reason   string // Human-readable explanation of why the content is invalid
	Err      error  // Underlying error, if any
}

func (e *InvalidContentError) Error() string {
	return fmt.Sprintf("invalid content in %s: %s", e.Filename, e.Reason)
}

func (e *InvalidContentError) Unwrap() error {
	return e.Err
}

// NetworkError represents a transport failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Operation string // The operation that failed (e.g., "list_torrents")
	Err       error  // Underlying transport error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a failure reported by the remote service. Message and Code are
// empty when the error body could not be decoded.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string // the remote "error" field
	Code       int    // the remote "error_code" field
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote error during %s (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("remote error during %s: unexpected response (HTTP %d %s)",
		e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

// AuthenticationError represents 401 Unauthorized and 403 Forbidden answers.
type AuthenticationError struct {
	Operation string // The operation that required authentication
	Err       error  // Underlying *APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed during %s: %v", e.Operation, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// UserMessage picks the most specific message for err: the remote message when
// the service provided one, the local reason for content and credential
// errors, and fallback for everything else.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var invalidErr *InvalidContentError
	if errors.As(err, &invalidErr) {
		return invalidErr.Reason
	}

	switch {
	case errors.Is(err, ErrMissingCredential):
		return "Please configure your API key"
	case errors.Is(err, ErrNoPlaylist):
		return ErrNoPlaylist.Error()
	case errors.Is(err, ErrInvalidInput):
		return err.Error()
	}

	return fallback
}
