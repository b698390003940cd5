package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/downloader"
	"github.com/italolelis/debrid_console/internal/logctx"
)

type errorResponse struct {
	Error string `json:"error"`
}

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", debrid.ErrInvalidInput, reason)
}

// statusFor maps an error to the HTTP status the console answers with.
func statusFor(err error) int {
	var (
		authErr    *debrid.AuthenticationError
		apiErr     *debrid.APIError
		invalidErr *debrid.InvalidContentError
		netErr     *debrid.NetworkError
	)

	switch {
	case errors.Is(err, debrid.ErrMissingCredential), errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, debrid.ErrInvalidInput), errors.As(err, &invalidErr):
		return http.StatusBadRequest
	case errors.Is(err, debrid.ErrNoPlaylist):
		return http.StatusNotFound
	case errors.Is(err, downloader.ErrSaveDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}

		return http.StatusBadGateway
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the most specific message available for err and
// fallback otherwise. Server-side failures are counted as system errors.
func (h *ConsoleHandler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusFor(err)

	message := debrid.UserMessage(err, fallback)
	if errors.Is(err, downloader.ErrSaveDisabled) {
		message = downloader.ErrSaveDisabled.Error()
	}

	logger := logctx.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "status", status, "err", err)
		h.telemetry.RecordSystemError(r.Context(), "http", debrid.ClassifyError(err))
	} else {
		logger.WarnContext(r.Context(), "request rejected", "status", status, "err", err)
	}

	writeMessage(w, r, status, message)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}
