package telemetry

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/italolelis/debrid_console/internal/logctx"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns an ID to every console request, reusing an upstream
// X-Request-ID when present, and echoes it in the response. The ID is stored
// through logctx so any log call made with the request context carries it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(logctx.WithRequestID(r.Context(), id)))
	})
}
