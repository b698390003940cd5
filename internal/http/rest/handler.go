package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/debrid_console/internal/console"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/downloader"
	"github.com/italolelis/debrid_console/internal/logctx"
	"github.com/italolelis/debrid_console/internal/notifier"
	"github.com/italolelis/debrid_console/internal/telemetry"
)

// maxJSONBody bounds decoded JSON request bodies.
const maxJSONBody = 1 << 20

// Console is the credential owner the handler serves requests through.
type Console interface {
	Client() (debrid.Client, error)
	HasCredential() bool
	SetCredential(ctx context.Context, token string) error
	ClearCredential(ctx context.Context) error
	Dashboard(ctx context.Context) (*console.Dashboard, error)
}

// ConsoleHandler exposes the debrid console as a JSON API. Lists are always
// re-fetched from the remote service; nothing is cached or patched locally.
type ConsoleHandler struct {
	console  Console
	saver    downloader.Saver
	notifier  notifier.Notifier
	telemetry *telemetry.Telemetry
	username  string
	password  string
}

// NewConsoleHandler creates the console API handler. Basic auth is enforced
// only when username is non-empty. tel may be nil.
func NewConsoleHandler(c Console, saver downloader.Saver, n notifier.Notifier, tel *telemetry.Telemetry, username, password string) *ConsoleHandler {
	if n == nil {
		n = notifier.Nop{}
	}

	if saver == nil {
		saver = downloader.NewDiskSaver("", nil, nil)
	}

	return &ConsoleHandler{
		console:   c,
		saver:     saver,
		notifier:  n,
		telemetry: tel,
		username:  username,
		password:  password,
	}
}

func (h *ConsoleHandler) Routes() http.Handler {
	r := chi.NewRouter()

	if h.username != "" {
		r.Use(h.basicAuthMiddleware)
	}

	r.Route("/credential", func(r chi.Router) {
		r.Get("/", h.HandleGetCredential)
		r.Put("/", h.HandleSetCredential)
		r.Delete("/", h.HandleClearCredential)
	})

	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/user", fetch(h, "Failed to load account data", func(ctx context.Context, c debrid.Client, _ *http.Request) (*debrid.User, error) {
		return c.User(ctx)
	}))
	r.Get("/traffic", fetch(h, "Failed to load traffic", func(ctx context.Context, c debrid.Client, _ *http.Request) (debrid.Traffic, error) {
		return c.Traffic(ctx)
	}))
	r.Get("/traffic/details", fetch(h, "Failed to load traffic details", func(ctx context.Context, c debrid.Client, r *http.Request) (debrid.TrafficDetails, error) {
		return c.TrafficDetails(ctx, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	}))
	r.Get("/time", fetch(h, "Failed to load server time", fetchServerTime))

	r.Route("/torrents", h.torrentRoutes)
	r.Route("/downloads", h.downloadRoutes)
	r.Post("/save", h.HandleSave)
	r.Route("/unrestrict", h.unrestrictRoutes)
	r.Route("/streaming/{id}", h.streamingRoutes)
	r.Route("/hosts", h.hostRoutes)
	r.Route("/settings", h.settingsRoutes)

	return r
}

func (h *ConsoleHandler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"configured": h.console.HasCredential()})
}

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

func (h *ConsoleHandler) HandleSetCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.console.SetCredential(r.Context(), req.APIKey); err != nil {
		h.writeError(w, r, err, "Failed to save API key")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsoleHandler) HandleClearCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.console.ClearCredential(r.Context()); err != nil {
		h.writeError(w, r, err, "Failed to clear API key")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConsoleHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.console.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to load account data")

		return
	}

	writeJSON(w, r, http.StatusOK, dashboard)
}

type serverTime struct {
	Time time.Time `json:"time"`
}

func fetchServerTime(ctx context.Context, c debrid.Client, _ *http.Request) (*serverTime, error) {
	t, err := c.ServerTime(ctx)
	if err != nil {
		return nil, err
	}

	return &serverTime{Time: t}, nil
}

// clientCall is a single remote operation performed on behalf of a request.
type clientCall[T any] func(ctx context.Context, c debrid.Client, r *http.Request) (T, error)

// fetch serves a read-only call: 200 with the JSON result.
func fetch[T any](h *ConsoleHandler, fallback string, call clientCall[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := h.console.Client()
		if err != nil {
			h.writeError(w, r, err, fallback)

			return
		}

		result, err := call(r.Context(), client, r)
		if err != nil {
			h.writeError(w, r, err, fallback)

			return
		}

		writeJSON(w, r, http.StatusOK, result)
	}
}

// mutate serves a call without a result: 204 on success.
func (h *ConsoleHandler) mutate(fallback string, call func(ctx context.Context, c debrid.Client, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := h.console.Client()
		if err != nil {
			h.writeError(w, r, err, fallback)

			return
		}

		if err := call(r.Context(), client, r); err != nil {
			h.writeError(w, r, err, fallback)

			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// notify sends content in the background; failures are only logged.
func (h *ConsoleHandler) notify(ctx context.Context, content string) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		if err := h.notifier.Notify(ctx, content); err != nil {
			logctx.LoggerFromContext(ctx).WarnContext(ctx, "failed to send notification", "err", err)
		}
	}()
}

func (h *ConsoleHandler) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="debrid console"`)
			writeMessage(w, r, http.StatusUnauthorized, "invalid authorization format")

			return
		}

		if username != h.username || password != h.password {
			writeMessage(w, r, http.StatusUnauthorized, "invalid username or password")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logctx.LoggerFromContext(r.Context()).WarnContext(r.Context(), "failed to decode request", "err", err)
		writeMessage(w, r, http.StatusBadRequest, "invalid request body")

		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logctx.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to encode response", "err", err)
	}
}

// parseListOptions reads offset and limit; absent values are left for the
// client to default.
func parseListOptions(r *http.Request) (debrid.ListOptions, error) {
	var opts debrid.ListOptions

	for name, dst := range map[string]*int{"offset": &opts.Offset, "limit": &opts.Limit} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}

		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, invalidInput(name + " must be a non-negative integer")
		}

		*dst = n
	}

	return opts, nil
}
