package debrid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with remote message",
			err:  &APIError{Operation: "user", StatusCode: 401, Message: "bad_token", Code: 8},
			want: "remote error during user (HTTP 401): bad_token",
		},
		{
			name: "without remote message",
			err:  &APIError{Operation: "traffic", StatusCode: 502},
			want: "remote error during traffic: unexpected response (HTTP 502 Bad Gateway)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	inner := &APIError{Operation: "user", StatusCode: 403, Message: "permission_denied"}
	authErr := &AuthenticationError{Operation: "user", Err: inner}

	var apiErr *APIError
	assert.True(t, errors.As(authErr, &apiErr))
	assert.Same(t, inner, apiErr)

	cause := errors.New("connection refused")
	netErr := &NetworkError{Operation: "traffic", Err: cause}
	assert.ErrorIs(t, netErr, cause)
	assert.Equal(t, "network error during traffic: connection refused", netErr.Error())

	contentErr := &InvalidContentError{Filename: "a.torrent", Reason: "too big", Err: cause}
	assert.ErrorIs(t, contentErr, cause)
	assert.Equal(t, "invalid content in a.torrent: too big", contentErr.Error())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error", err: nil, want: ""},
		{name: "remote message", err: &APIError{StatusCode: 400, Message: "hoster_unsupported"}, want: "hoster_unsupported"},
		{
			name: "remote message through authentication error",
			err:  &AuthenticationError{Err: &APIError{StatusCode: 401, Message: "bad_token"}},
			want: "bad_token",
		},
		{name: "remote without message", err: &APIError{StatusCode: 500}, want: "fallback"},
		{name: "wrapped remote message", err: fmt.Errorf("loading: %w", &APIError{Message: "unknown_ressource"}), want: "unknown_ressource"},
		{name: "invalid content", err: &InvalidContentError{Filename: "x", Reason: "torrent file is empty"}, want: "torrent file is empty"},
		{name: "missing credential", err: ErrMissingCredential, want: "Please configure your API key"},
		{name: "no playlist", err: ErrNoPlaylist, want: "no streaming playlist available"},
		{name: "invalid input", err: fmt.Errorf("%w: link is required", ErrInvalidInput), want: "invalid input: link is required"},
		{name: "network", err: &NetworkError{Operation: "user", Err: errors.New("timeout")}, want: "fallback"},
		{name: "anything else", err: errors.New("boom"), want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err, "fallback"))
		})
	}
}
