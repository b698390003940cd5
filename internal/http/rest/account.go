package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/debrid_console/internal/debrid"
)

func (h *ConsoleHandler) hostRoutes(r chi.Router) {
	r.Get("/", fetch(h, "Failed to load hosts", func(ctx context.Context, c debrid.Client, _ *http.Request) (map[string]debrid.Host, error) {
		return c.Hosts(ctx)
	}))
	r.Get("/status", fetch(h, "Failed to load host status", func(ctx context.Context, c debrid.Client, _ *http.Request) (map[string]debrid.HostStatus, error) {
		return c.HostsStatus(ctx)
	}))
	r.Get("/regex", fetch(h, "Failed to load host patterns", func(ctx context.Context, c debrid.Client, _ *http.Request) ([]string, error) {
		return c.HostsRegex(ctx)
	}))
	r.Get("/domains", fetch(h, "Failed to load host domains", func(ctx context.Context, c debrid.Client, _ *http.Request) ([]string, error) {
		return c.HostsDomains(ctx)
	}))
}

type updateSettingRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (h *ConsoleHandler) settingsRoutes(r chi.Router) {
	r.Get("/", fetch(h, "Failed to load settings", func(ctx context.Context, c debrid.Client, _ *http.Request) (*debrid.Settings, error) {
		return c.Settings(ctx)
	}))
	r.Post("/", h.HandleUpdateSetting)
	r.Put("/avatar", h.HandleUploadAvatar)
	r.Delete("/avatar", h.mutate("Failed to delete avatar", func(ctx context.Context, c debrid.Client, _ *http.Request) error {
		return c.DeleteAvatar(ctx)
	}))
}

func (h *ConsoleHandler) HandleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req updateSettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	h.mutate("Failed to update setting", func(ctx context.Context, c debrid.Client, _ *http.Request) error {
		return c.UpdateSetting(ctx, req.Name, req.Value)
	})(w, r)
}

// HandleUploadAvatar accepts a multipart form with a "file" part.
func (h *ConsoleHandler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "expected a multipart form with an image file")

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "missing avatar file")

		return
	}
	defer file.Close()

	h.mutate("Failed to upload avatar", func(ctx context.Context, c debrid.Client, _ *http.Request) error {
		return c.UploadAvatar(ctx, header.Filename, file)
	})(w, r)
}
