package debrid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 50
)

// ListOptions paginates list endpoints. The zero value asks for the first page.
type ListOptions struct {
	Offset int
	Limit  int
}

// Normalize fills in the defaults for unset or out of range values.
func (o ListOptions) Normalize() ListOptions {
	if o.Offset < 0 {
		o.Offset = DefaultOffset
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	return o
}

// Flag decodes the 0/1 integers the remote service uses for booleans.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch string(data) {
	case "null", "0", "false", `"0"`, `""`:
		*f = false
	case "1", "true", `"1"`:
		*f = true
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid flag value %s", data)
		}

		*f = n != 0
	}

	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}

	return []byte("0"), nil
}

type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Points     int64     `json:"points"`
	Locale     string    `json:"locale"`
	Avatar     string    `json:"avatar"`
	Type       string    `json:"type"`
	Premium    int64     `json:"premium"`
	Expiration time.Time `json:"expiration"`
}

// PremiumRemaining is the premium time left on the account. The remote
// service reports it in seconds.
func (u *User) PremiumRemaining() time.Duration {
	return time.Duration(u.Premium) * time.Second
}

// PremiumDays is the number of whole premium days left.
func (u *User) PremiumDays() int {
	return int(u.PremiumRemaining().Hours() / 24)
}

// TrafficQuota is the traffic snapshot for a single hoster.
type TrafficQuota struct {
	Left  int64  `json:"left"`
	Bytes int64  `json:"bytes"`
	Links int64  `json:"links"`
	Limit int64  `json:"limit"`
	Type  string `json:"type"`
	Extra int64  `json:"extra"`
	Reset string `json:"reset"`
}

// Traffic maps a hoster domain to its quota.
type Traffic map[string]TrafficQuota

// TrafficDay is the per-host usage for a single day.
type TrafficDay struct {
	Host  map[string]int64 `json:"host"`
	Bytes int64            `json:"bytes"`
}

// TrafficDetails maps a YYYY-MM-DD date to its usage.
type TrafficDetails map[string]TrafficDay

type Torrent struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Hash     string    `json:"hash"`
	Bytes    int64     `json:"bytes"`
	Host     string    `json:"host"`
	Split    int       `json:"split"`
	Progress float64   `json:"progress"`
	Status   Status    `json:"status"`
	Added    time.Time `json:"added"`
	Links    []string  `json:"links"`
	Ended    string    `json:"ended,omitempty"`
	Speed    *int64    `json:"speed,omitempty"`
	Seeders  *int      `json:"seeders,omitempty"`
}

type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected Flag   `json:"selected"`
}

// TorrentInfo is a torrent together with its files and resolved links.
type TorrentInfo struct {
	Torrent

	OriginalFilename string        `json:"original_filename"`
	OriginalBytes    int64         `json:"original_bytes"`
	Files            []TorrentFile `json:"files"`
}

// AddedTorrent references a torrent created by a magnet or file submission.
type AddedTorrent struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type ActiveCount struct {
	Count int `json:"nb"`
	Limit int `json:"limit"`
}

type AvailableHost struct {
	Host        string `json:"host"`
	MaxFileSize int64  `json:"max_file_size"`
}

type FileVariant struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

// Availability maps an info hash to the raw instant availability payload.
// The remote service answers with an object for known hashes and an empty
// array for unknown ones, so entries are decoded lazily.
type Availability map[string]json.RawMessage

// Variants returns the cached file sets per hoster for hash.
func (a Availability) Variants(hash string) map[string][]map[string]FileVariant {
	raw, ok := a[hash]
	if !ok {
		return nil
	}

	var variants map[string][]map[string]FileVariant
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil
	}

	return variants
}

// IsCached reports whether any hoster holds a cached copy of hash.
func (a Availability) IsCached(hash string) bool {
	for _, sets := range a.Variants(hash) {
		if len(sets) > 0 {
			return true
		}
	}

	return false
}

type Download struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimeType,omitempty"`
	Filesize   int64     `json:"filesize"`
	Link       string    `json:"link"`
	Host       string    `json:"host"`
	Chunks     int       `json:"chunks"`
	Download   string    `json:"download"`
	Streamable Flag      `json:"streamable"`
	Generated  time.Time `json:"generated"`
}

// UnrestrictRequest describes a hoster link to exchange for a direct link.
// Empty Password and false Remote are not submitted.
type UnrestrictRequest struct {
	Link     string
	Password string
	Remote   bool
}

type UnrestrictedLink struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType,omitempty"`
	Filesize   int64  `json:"filesize"`
	Link       string `json:"link"`
	Host       string `json:"host"`
	Chunks     int    `json:"chunks"`
	CRC        int    `json:"crc"`
	Download   string `json:"download"`
	Streamable Flag   `json:"streamable"`
}

// LinkCheck summarizes whether a hoster link can be unrestricted.
type LinkCheck struct {
	Host      string `json:"host"`
	Link      string `json:"link"`
	Filename  string `json:"filename,omitempty"`
	Filesize  int64  `json:"filesize,omitempty"`
	Supported Flag   `json:"supported"`
}

type MediaInfo struct {
	Filename    string          `json:"filename"`
	Hoster      string          `json:"hoster"`
	Link        string          `json:"link"`
	Type        string          `json:"type"`
	Duration    float64         `json:"duration"`
	Bitrate     int64           `json:"bitrate"`
	Size        int64           `json:"size"`
	Details     json.RawMessage `json:"details,omitempty"`
	PosterPath  string          `json:"poster_path,omitempty"`
	BackdropURL string          `json:"backdrop_path,omitempty"`
}

type Host struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type HostStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Supported Flag   `json:"supported"`
	Status    string `json:"status"`
	CheckTime string `json:"check_time"`
}

type Settings struct {
	DownloadPorts          []string          `json:"download_ports"`
	DownloadPort           string            `json:"download_port"`
	Locales                map[string]string `json:"locales"`
	Locale                 string            `json:"locale"`
	StreamingQualities     []string          `json:"streaming_qualities"`
	StreamingQuality       string            `json:"streaming_quality"`
	MobileStreamingQuality string            `json:"mobile_streaming_quality"`
	StreamingLanguages     map[string]string `json:"streaming_languages"`
	StreamingLanguage      string            `json:"streaming_language_preference"`
	StreamingCastAudio     []string          `json:"streaming_cast_audio"`
	StreamingCastAudioPref string            `json:"streaming_cast_audio_preference"`
}
