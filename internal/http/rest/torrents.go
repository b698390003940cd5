package rest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/italolelis/debrid_console/internal/debrid/realdebrid"
	"github.com/italolelis/debrid_console/internal/notifier"
)

// maxUploadMemory is the multipart form size kept in memory before spilling
// to temporary files.
const maxUploadMemory = 32 << 20

func (h *ConsoleHandler) torrentRoutes(r chi.Router) {
	r.Get("/", fetch(h, "Failed to load torrents", func(ctx context.Context, c debrid.Client, r *http.Request) ([]torrentView, error) {
		opts, err := parseListOptions(r)
		if err != nil {
			return nil, err
		}

		torrents, err := c.Torrents(ctx, opts)
		if err != nil {
			return nil, err
		}

		return newTorrentViews(torrents), nil
	}))
	r.Post("/magnet", h.HandleAddMagnet)
	r.Post("/file", h.HandleAddTorrentFile)
	r.Get("/active", fetch(h, "Failed to load active torrents", func(ctx context.Context, c debrid.Client, _ *http.Request) (*debrid.ActiveCount, error) {
		return c.ActiveCount(ctx)
	}))
	r.Get("/hosts", fetch(h, "Failed to load torrent hosts", func(ctx context.Context, c debrid.Client, _ *http.Request) ([]debrid.AvailableHost, error) {
		return c.AvailableHosts(ctx)
	}))
	r.Get("/availability", fetch(h, "Failed to check availability", func(ctx context.Context, c debrid.Client, r *http.Request) (map[string]availabilityView, error) {
		hashes := queryList(r, "hash")

		availability, err := c.InstantAvailability(ctx, hashes...)
		if err != nil {
			return nil, err
		}

		return newAvailabilityViews(availability, hashes), nil
	}))
	r.Get("/{id}", fetch(h, "Failed to load torrent", func(ctx context.Context, c debrid.Client, r *http.Request) (*debrid.TorrentInfo, error) {
		return c.TorrentInfo(ctx, chi.URLParam(r, "id"))
	}))
	r.Post("/{id}/select", h.HandleSelectFiles)
	r.Delete("/{id}", h.mutate("Failed to delete torrent", func(ctx context.Context, c debrid.Client, r *http.Request) error {
		return c.DeleteTorrent(ctx, chi.URLParam(r, "id"))
	}))
}

// torrentView is a torrent with its status already classified for display.
type torrentView struct {
	debrid.Torrent
	StatusKnown    bool `json:"status_known"`
	Active         bool `json:"active"`
	Failed         bool `json:"failed"`
	NeedsSelection bool `json:"needs_selection"`
}

func newTorrentViews(torrents []debrid.Torrent) []torrentView {
	views := make([]torrentView, 0, len(torrents))

	for _, t := range torrents {
		views = append(views, torrentView{
			Torrent:        t,
			StatusKnown:    t.Status.Known(),
			Active:         t.Status.IsActive(),
			Failed:         t.Status.IsFailed(),
			NeedsSelection: t.Status.NeedsFileSelection(),
		})
	}

	return views
}

type availabilityView struct {
	Cached  bool                                       `json:"cached"`
	Hosters map[string][]map[string]debrid.FileVariant `json:"hosters"`
}

// newAvailabilityViews answers every requested hash, keyed as the remote
// service keys them (lower case). Unknown hashes are reported as not cached.
func newAvailabilityViews(availability debrid.Availability, hashes []string) map[string]availabilityView {
	views := make(map[string]availabilityView, len(hashes))

	for _, hash := range hashes {
		hash = strings.ToLower(hash)

		hosters := availability.Variants(hash)
		if hosters == nil {
			hosters = map[string][]map[string]debrid.FileVariant{}
		}

		views[hash] = availabilityView{
			Cached:  availability.IsCached(hash),
			Hosters: hosters,
		}
	}

	return views
}

type addMagnetRequest struct {
	Magnet string `json:"magnet"`
	Host   string `json:"host,omitempty"`
}

func (h *ConsoleHandler) HandleAddMagnet(w http.ResponseWriter, r *http.Request) {
	var req addMagnetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.console.Client()
	if err != nil {
		h.writeError(w, r, err, "Failed to add torrent")

		return
	}

	added, err := client.AddMagnet(r.Context(), strings.TrimSpace(req.Magnet), req.Host)
	if err != nil {
		h.writeError(w, r, err, "Failed to add torrent")

		return
	}

	h.notify(r.Context(), notifier.TorrentAdded("magnet", magnetName(req.Magnet), added.ID, time.Now()))

	writeJSON(w, r, http.StatusCreated, added)
}

// HandleAddTorrentFile accepts a multipart form with a "file" part and an
// optional "host" field.
func (h *ConsoleHandler) HandleAddTorrentFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "expected a multipart form with a torrent file")

		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "missing torrent file")

		return
	}
	defer file.Close()

	// one byte over the limit is enough for the size check to reject it
	content, err := io.ReadAll(io.LimitReader(file, realdebrid.MaxTorrentFileSize+1))
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "failed to read torrent file")

		return
	}

	client, err := h.console.Client()
	if err != nil {
		h.writeError(w, r, err, "Failed to add torrent")

		return
	}

	added, err := client.AddTorrentFile(r.Context(), header.Filename, content, r.FormValue("host"))
	if err != nil {
		h.writeError(w, r, err, "Failed to add torrent")

		return
	}

	h.notify(r.Context(), notifier.TorrentAdded("torrent", header.Filename, added.ID, time.Now()))

	writeJSON(w, r, http.StatusCreated, added)
}

type selectFilesRequest struct {
	Files string `json:"files"`
}

func (h *ConsoleHandler) HandleSelectFiles(w http.ResponseWriter, r *http.Request) {
	var req selectFilesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Files == "" {
		req.Files = "all"
	}

	h.mutate("Failed to select files", func(ctx context.Context, c debrid.Client, r *http.Request) error {
		return c.SelectFiles(ctx, chi.URLParam(r, "id"), req.Files)
	})(w, r)
}

// queryList collects a repeated query parameter, also splitting
// comma-separated values.
func queryList(r *http.Request, name string) []string {
	var values []string

	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}

	return values
}

// magnetName extracts the display name (dn) of a magnet link, if any.
func magnetName(magnet string) string {
	_, query, found := strings.Cut(magnet, "?")
	if !found {
		return ""
	}

	for _, part := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(part, "=")
		if key != "dn" {
			continue
		}

		if name, err := url.QueryUnescape(value); err == nil {
			return name
		}

		return value
	}

	return ""
}
