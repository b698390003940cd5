package debrid

import (
	"context"
	"io"
	"time"
)

// Client is the remote debrid service. Every method performs exactly one
// round trip and never retries.
type Client interface {
	User(ctx context.Context) (*User, error)

	Torrents(ctx context.Context, opts ListOptions) ([]Torrent, error)
	TorrentInfo(ctx context.Context, id string) (*TorrentInfo, error)
	AddMagnet(ctx context.Context, magnet, host string) (*AddedTorrent, error)
	AddTorrentFile(ctx context.Context, filename string, content []byte, host string) (*AddedTorrent, error)
	SelectFiles(ctx context.Context, id, files string) error
	DeleteTorrent(ctx context.Context, id string) error
	InstantAvailability(ctx context.Context, hashes ...string) (Availability, error)
	ActiveCount(ctx context.Context) (*ActiveCount, error)
	AvailableHosts(ctx context.Context) ([]AvailableHost, error)

	Downloads(ctx context.Context, opts ListOptions) ([]Download, error)
	DeleteDownload(ctx context.Context, id string) error

	UnrestrictLink(ctx context.Context, req UnrestrictRequest) (*UnrestrictedLink, error)
	CheckLink(ctx context.Context, link, password string) (*LinkCheck, error)
	UnrestrictFolder(ctx context.Context, link string) ([]string, error)

	TranscodeLinks(ctx context.Context, id string) (TranscodeLinks, error)
	MediaInfo(ctx context.Context, id string) (*MediaInfo, error)

	Traffic(ctx context.Context) (Traffic, error)
	TrafficDetails(ctx context.Context, start, end string) (TrafficDetails, error)

	Hosts(ctx context.Context) (map[string]Host, error)
	HostsStatus(ctx context.Context) (map[string]HostStatus, error)
	HostsRegex(ctx context.Context) ([]string, error)
	HostsDomains(ctx context.Context) ([]string, error)

	Settings(ctx context.Context) (*Settings, error)
	UpdateSetting(ctx context.Context, name, value string) error
	UploadAvatar(ctx context.Context, filename string, r io.Reader) error
	DeleteAvatar(ctx context.Context) error

	ServerTime(ctx context.Context) (time.Time, error)
}
