package debrid

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/italolelis/debrid_console/internal/telemetry"
)

// InstrumentedClient wraps Client with telemetry.
type InstrumentedClient struct {
	client     Client
	telemetry  *telemetry.Telemetry
	clientType string
}

var _ Client = (*InstrumentedClient)(nil)

// NewInstrumentedClient creates a new instrumented debrid client.
func NewInstrumentedClient(client Client, tel *telemetry.Telemetry, clientType string) *InstrumentedClient {
	return &InstrumentedClient{
		client:     client,
		telemetry:  tel,
		clientType: clientType,
	}
}

// ClassifyError maps a client failure to a bounded error type for metrics.
func ClassifyError(err error) string {
	var (
		authErr    *AuthenticationError
		apiErr     *APIError
		netErr     *NetworkError
		invalidErr *InvalidContentError
	)

	switch {
	case errors.As(err, &authErr):
		return "authentication"
	case errors.As(err, &invalidErr):
		return "invalid_content"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &apiErr):
		return "remote"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}

func instrument[T any](ctx context.Context, c *InstrumentedClient, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	err := c.telemetry.InstrumentClientOperation(ctx, c.clientType, operation, ClassifyError, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)

		return err
	})

	return result, err
}

func (c *InstrumentedClient) instrumentErr(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return c.telemetry.InstrumentClientOperation(ctx, c.clientType, operation, ClassifyError, fn)
}

// submission also counts the call as a user submission.
func submission[T any](ctx context.Context, c *InstrumentedClient, kind string, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := instrument(ctx, c, kind, fn)

	status := "success"
	if err != nil {
		status = "error"
	}

	c.telemetry.RecordSubmission(ctx, kind, status)

	return result, err
}

func (c *InstrumentedClient) User(ctx context.Context) (*User, error) {
	return instrument(ctx, c, "user", c.client.User)
}

func (c *InstrumentedClient) Torrents(ctx context.Context, opts ListOptions) ([]Torrent, error) {
	return instrument(ctx, c, "list_torrents", func(ctx context.Context) ([]Torrent, error) {
		return c.client.Torrents(ctx, opts)
	})
}

func (c *InstrumentedClient) TorrentInfo(ctx context.Context, id string) (*TorrentInfo, error) {
	return instrument(ctx, c, "torrent_info", func(ctx context.Context) (*TorrentInfo, error) {
		return c.client.TorrentInfo(ctx, id)
	})
}

func (c *InstrumentedClient) AddMagnet(ctx context.Context, magnet, host string) (*AddedTorrent, error) {
	return submission(ctx, c, "add_magnet", func(ctx context.Context) (*AddedTorrent, error) {
		return c.client.AddMagnet(ctx, magnet, host)
	})
}

func (c *InstrumentedClient) AddTorrentFile(ctx context.Context, filename string, content []byte, host string) (*AddedTorrent, error) {
	return submission(ctx, c, "add_torrent", func(ctx context.Context) (*AddedTorrent, error) {
		return c.client.AddTorrentFile(ctx, filename, content, host)
	})
}

func (c *InstrumentedClient) SelectFiles(ctx context.Context, id, files string) error {
	return c.instrumentErr(ctx, "select_files", func(ctx context.Context) error {
		return c.client.SelectFiles(ctx, id, files)
	})
}

func (c *InstrumentedClient) DeleteTorrent(ctx context.Context, id string) error {
	return c.instrumentErr(ctx, "delete_torrent", func(ctx context.Context) error {
		return c.client.DeleteTorrent(ctx, id)
	})
}

func (c *InstrumentedClient) InstantAvailability(ctx context.Context, hashes ...string) (Availability, error) {
	return instrument(ctx, c, "instant_availability", func(ctx context.Context) (Availability, error) {
		return c.client.InstantAvailability(ctx, hashes...)
	})
}

func (c *InstrumentedClient) ActiveCount(ctx context.Context) (*ActiveCount, error) {
	return instrument(ctx, c, "active_count", c.client.ActiveCount)
}

func (c *InstrumentedClient) AvailableHosts(ctx context.Context) ([]AvailableHost, error) {
	return instrument(ctx, c, "available_hosts", c.client.AvailableHosts)
}

func (c *InstrumentedClient) Downloads(ctx context.Context, opts ListOptions) ([]Download, error) {
	return instrument(ctx, c, "list_downloads", func(ctx context.Context) ([]Download, error) {
		return c.client.Downloads(ctx, opts)
	})
}

func (c *InstrumentedClient) DeleteDownload(ctx context.Context, id string) error {
	return c.instrumentErr(ctx, "delete_download", func(ctx context.Context) error {
		return c.client.DeleteDownload(ctx, id)
	})
}

func (c *InstrumentedClient) UnrestrictLink(ctx context.Context, req UnrestrictRequest) (*UnrestrictedLink, error) {
	return submission(ctx, c, "unrestrict_link", func(ctx context.Context) (*UnrestrictedLink, error) {
		return c.client.UnrestrictLink(ctx, req)
	})
}

func (c *InstrumentedClient) CheckLink(ctx context.Context, link, password string) (*LinkCheck, error) {
	return instrument(ctx, c, "check_link", func(ctx context.Context) (*LinkCheck, error) {
		return c.client.CheckLink(ctx, link, password)
	})
}

func (c *InstrumentedClient) UnrestrictFolder(ctx context.Context, link string) ([]string, error) {
	return instrument(ctx, c, "unrestrict_folder", func(ctx context.Context) ([]string, error) {
		return c.client.UnrestrictFolder(ctx, link)
	})
}

func (c *InstrumentedClient) TranscodeLinks(ctx context.Context, id string) (TranscodeLinks, error) {
	return instrument(ctx, c, "transcode_links", func(ctx context.Context) (TranscodeLinks, error) {
		return c.client.TranscodeLinks(ctx, id)
	})
}

func (c *InstrumentedClient) MediaInfo(ctx context.Context, id string) (*MediaInfo, error) {
	return instrument(ctx, c, "media_info", func(ctx context.Context) (*MediaInfo, error) {
		return c.client.MediaInfo(ctx, id)
	})
}

func (c *InstrumentedClient) Traffic(ctx context.Context) (Traffic, error) {
	return instrument(ctx, c, "traffic", c.client.Traffic)
}

func (c *InstrumentedClient) TrafficDetails(ctx context.Context, start, end string) (TrafficDetails, error) {
	return instrument(ctx, c, "traffic_details", func(ctx context.Context) (TrafficDetails, error) {
		return c.client.TrafficDetails(ctx, start, end)
	})
}

func (c *InstrumentedClient) Hosts(ctx context.Context) (map[string]Host, error) {
	return instrument(ctx, c, "hosts", c.client.Hosts)
}

func (c *InstrumentedClient) HostsStatus(ctx context.Context) (map[string]HostStatus, error) {
	return instrument(ctx, c, "hosts_status", c.client.HostsStatus)
}

func (c *InstrumentedClient) HostsRegex(ctx context.Context) ([]string, error) {
	return instrument(ctx, c, "hosts_regex", c.client.HostsRegex)
}

func (c *InstrumentedClient) HostsDomains(ctx context.Context) ([]string, error) {
	return instrument(ctx, c, "hosts_domains", c.client.HostsDomains)
}

func (c *InstrumentedClient) Settings(ctx context.Context) (*Settings, error) {
	return instrument(ctx, c, "settings", c.client.Settings)
}

func (c *InstrumentedClient) UpdateSetting(ctx context.Context, name, value string) error {
	return c.instrumentErr(ctx, "update_setting", func(ctx context.Context) error {
		return c.client.UpdateSetting(ctx, name, value)
	})
}

func (c *InstrumentedClient) UploadAvatar(ctx context.Context, filename string, r io.Reader) error {
	return c.instrumentErr(ctx, "upload_avatar", func(ctx context.Context) error {
		return c.client.UploadAvatar(ctx, filename, r)
	})
}

func (c *InstrumentedClient) DeleteAvatar(ctx context.Context) error {
	return c.instrumentErr(ctx, "delete_avatar", c.client.DeleteAvatar)
}

func (c *InstrumentedClient) ServerTime(ctx context.Context) (time.Time, error) {
	return instrument(ctx, c, "server_time", c.client.ServerTime)
}
