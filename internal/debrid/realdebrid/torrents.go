package realdebrid

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/italolelis/debrid_console/internal/debrid"
	"github.com/zeebo/bencode"
)

// MaxTorrentFileSize is the largest .torrent payload accepted for upload.
const MaxTorrentFileSize = 10 << 20

func (c *Client) Torrents(ctx context.Context, opts debrid.ListOptions) ([]debrid.Torrent, error) {
	torrents := []debrid.Torrent{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, listPath("/torrents", opts), "list_torrents", &torrents); err != nil {
		return nil, err
	}

	return torrents, nil
}

func (c *Client) TorrentInfo(ctx context.Context, id string) (*debrid.TorrentInfo, error) {
	if err := requireValue("torrent id", id); err != nil {
		return nil, err
	}

	req := c.request(ctx).SetPathParam("id", id)

	var info debrid.TorrentInfo
	if err := c.do(ctx, req, http.MethodGet, "/torrents/info/{id}", "torrent_info", &info); err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *Client) AddMagnet(ctx context.Context, magnet, host string) (*debrid.AddedTorrent, error) {
	if err := requireValue("magnet", magnet); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("magnet", magnet)

	if host != "" {
		form.Set("host", host)
	}

	req := c.request(ctx).SetFormDataFromValues(form)

	var added debrid.AddedTorrent
	if err := c.do(ctx, req, http.MethodPost, "/torrents/addMagnet", "add_magnet", &added); err != nil {
		return nil, err
	}

	return &added, nil
}

// AddTorrentFile uploads a .torrent file as a multipart "file" part. The
// payload is validated locally first: it must be at most MaxTorrentFileSize
// bytes and decode as a bencoded dictionary carrying an "info" key.
func (c *Client) AddTorrentFile(ctx context.Context, filename string, content []byte, host string) (*debrid.AddedTorrent, error) {
	if strings.TrimSpace(filename) == "" {
		filename = TorrentFilename(content)
	}

	if err := ValidateTorrentFile(filename, content); err != nil {
		return nil, err
	}

	req := c.request(ctx).SetFileReader("file", filename, bytes.NewReader(content))
	if host != "" {
		req.SetQueryParam("host", host)
	}

	var added debrid.AddedTorrent
	if err := c.do(ctx, req, http.MethodPut, "/torrents/addTorrent", "add_torrent", &added); err != nil {
		return nil, err
	}

	return &added, nil
}

// ValidateTorrentFile rejects payloads that cannot be a torrent metainfo file.
func ValidateTorrentFile(filename string, content []byte) error {
	switch {
	case len(content) == 0:
		return &debrid.InvalidContentError{Filename: filename, Reason: "torrent file is empty"}
	case len(content) > MaxTorrentFileSize:
		return &debrid.InvalidContentError{
			Filename: filename,
			Reason:   fmt.Sprintf("torrent file exceeds %d bytes", MaxTorrentFileSize),
		}
	}

	var decoded any
	if err := bencode.DecodeBytes(content, &decoded); err != nil {
		return &debrid.InvalidContentError{
			Filename: filename,
			Reason:   fmt.Sprintf("invalid bencode structure: %v", err),
			Err:      err,
		}
	}

	dict, ok := decoded.(map[string]any)
	if !ok {
		return &debrid.InvalidContentError{Filename: filename, Reason: "bencode root must be a dictionary"}
	}

	if _, hasInfo := dict["info"]; !hasInfo {
		return &debrid.InvalidContentError{Filename: filename, Reason: "bencode missing required 'info' dictionary"}
	}

	return nil
}

// TorrentFilename derives a stable .torrent name from the payload for uploads
// that arrive without one.
func TorrentFilename(content []byte) string {
	sum := sha1.Sum(content)

	return hex.EncodeToString(sum[:])[:16] + ".torrent"
}

// SelectFiles picks the files to download: a comma-separated list of file
// IDs or "all".
func (c *Client) SelectFiles(ctx context.Context, id, files string) error {
	if err := requireValue("torrent id", id); err != nil {
		return err
	}

	if err := requireValue("files", files); err != nil {
		return err
	}

	req := c.request(ctx).
		SetPathParam("id", id).
		SetFormDataFromValues(url.Values{"files": {files}})

	return c.do(ctx, req, http.MethodPost, "/torrents/selectFiles/{id}", "select_files", nil)
}

func (c *Client) DeleteTorrent(ctx context.Context, id string) error {
	if err := requireValue("torrent id", id); err != nil {
		return err
	}

	req := c.request(ctx).SetPathParam("id", id)

	return c.do(ctx, req, http.MethodDelete, "/torrents/delete/{id}", "delete_torrent", nil)
}

// InstantAvailability asks which of the given info hashes are already cached
// remotely. Hashes are sent lowercased as successive path segments.
func (c *Client) InstantAvailability(ctx context.Context, hashes ...string) (debrid.Availability, error) {
	segments := make([]string, 0, len(hashes))

	for _, h := range hashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}

		segments = append(segments, url.PathEscape(h))
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: at least one hash is required", debrid.ErrInvalidInput)
	}

	path := "/torrents/instantAvailability/" + strings.Join(segments, "/")

	availability := debrid.Availability{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, path, "instant_availability", &availability); err != nil {
		return nil, err
	}

	return availability, nil
}

func (c *Client) ActiveCount(ctx context.Context) (*debrid.ActiveCount, error) {
	var count debrid.ActiveCount
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/torrents/activeCount", "active_count", &count); err != nil {
		return nil, err
	}

	return &count, nil
}

func (c *Client) AvailableHosts(ctx context.Context) ([]debrid.AvailableHost, error) {
	hosts := []debrid.AvailableHost{}
	if err := c.do(ctx, c.request(ctx), http.MethodGet, "/torrents/availableHosts", "available_hosts", &hosts); err != nil {
		return nil, err
	}

	return hosts, nil
}

func requireValue(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", debrid.ErrInvalidInput, name)
	}

	return nil
}
