package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/notifier"
)

func (h *ConsoleHandler) downloadRoutes(r chi.Router) {
	r.Get("/", fetch(h, "Failed to load downloads", func(ctx context.Context, c debrid.Client, r *http.Request) ([]debrid.Download, error) {
		opts, err := parseListOptions(r)
		if err != nil {
			return nil, err
		}

		return c.Downloads(ctx, opts)
	}))
	r.Delete("/{id}", h.mutate("Failed to delete download", func(ctx context.Context, c debrid.Client, r *http.Request) error {
		return c.DeleteDownload(ctx, chi.URLParam(r, "id"))
	}))
}

type unrestrictRequest struct {
	Link     string `json:"link"`
	Password string `json:"password,omitempty"`
	Remote   bool   `json:"remote,omitempty"`
}

func (h *ConsoleHandler) unrestrictRoutes(r chi.Router) {
	r.Post("/", h.HandleUnrestrict)
	r.Post("/check", h.HandleCheckLink)
	r.Post("/folder", h.HandleUnrestrictFolder)
}

func (h *ConsoleHandler) HandleUnrestrict(w http.ResponseWriter, r *http.Request) {
	var req unrestrictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.console.Client()
	if err != nil {
		h.writeError(w, r, err, "Failed to unrestrict link")

		return
	}

	link, err := client.UnrestrictLink(r.Context(), debrid.UnrestrictRequest{
		Link:     strings.TrimSpace(req.Link),
		Password: req.Password,
		Remote:   req.Remote,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to unrestrict link")

		return
	}

	h.notify(r.Context(), notifier.LinkUnrestricted(link.Filename, link.Filesize))

	writeJSON(w, r, http.StatusOK, link)
}

func (h *ConsoleHandler) HandleCheckLink(w http.ResponseWriter, r *http.Request) {
	var req unrestrictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fetch(h, "Failed to check link", func(ctx context.Context, c debrid.Client, _ *http.Request) (*debrid.LinkCheck, error) {
		return c.CheckLink(ctx, strings.TrimSpace(req.Link), req.Password)
	})(w, r)
}

func (h *ConsoleHandler) HandleUnrestrictFolder(w http.ResponseWriter, r *http.Request) {
	var req unrestrictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fetch(h, "Failed to unrestrict folder", func(ctx context.Context, c debrid.Client, _ *http.Request) ([]string, error) {
		return c.UnrestrictFolder(ctx, strings.TrimSpace(req.Link))
	})(w, r)
}

type saveRequest struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
}

// HandleSave stores the content behind a direct link on the console host.
func (h *ConsoleHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.saver.Save(r.Context(), req.Link, req.Filename)
	if err != nil {
		h.writeError(w, r, err, "Failed to save file")

		return
	}

	h.notify(r.Context(), notifier.FileSaved(saved.Path, saved.Size))

	writeJSON(w, r, http.StatusCreated, saved)
}

func (h *ConsoleHandler) streamingRoutes(r chi.Router) {
	r.Get("/transcode", fetch(h, "Failed to load streaming links", func(ctx context.Context, c debrid.Client, r *http.Request) (debrid.TranscodeLinks, error) {
		return c.TranscodeLinks(ctx, chi.URLParam(r, "id"))
	}))
	r.Get("/playlist", fetch(h, "Failed to load streaming links", func(ctx context.Context, c debrid.Client, r *http.Request) (*debrid.StreamingLink, error) {
		links, err := c.TranscodeLinks(ctx, chi.URLParam(r, "id"))
		if err != nil {
			return nil, err
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = debrid.FormatApple
		}

		playlist, err := links.Playlist(format)
		if err != nil {
			return nil, err
		}

		return &playlist, nil
	}))
	r.Get("/media", fetch(h, "Failed to load media info", func(ctx context.Context, c debrid.Client, r *http.Request) (*debrid.MediaInfo, error) {
		return c.MediaInfo(ctx, chi.URLParam(r, "id"))
	}))
}
