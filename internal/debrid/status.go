package debrid

import (
	"encoding/json"
	"strings"
)

// StatusKind is the closed set of torrent lifecycle states known to this
// console. Tags introduced remotely later decode as StatusUnrecognized.
type StatusKind int

const (
	StatusUnrecognized StatusKind = iota
	StatusMagnetError
	StatusMagnetConversion
	StatusWaitingFilesSelection
	StatusQueued
	StatusDownloading
	StatusDownloaded
	StatusError
	StatusVirus
	StatusCompressing
	StatusUploading
	StatusDead
)

var statusTags = map[string]StatusKind{
	"magnet_error":            StatusMagnetError,
	"magnet_conversion":       StatusMagnetConversion,
	"waiting_files_selection": StatusWaitingFilesSelection,
	"queued":                  StatusQueued,
	"downloading":             StatusDownloading,
	"downloaded":              StatusDownloaded,
	"error":                   StatusError,
	"virus":                   StatusVirus,
	"compressing":             StatusCompressing,
	"uploading":               StatusUploading,
	"dead":                    StatusDead,
}

// Status is a torrent status tag. Raw always holds the tag as received.
type Status struct {
	Kind StatusKind
	Raw  string
}

// ParseStatus classifies a remote status tag.
func ParseStatus(tag string) Status {
	kind, ok := statusTags[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		kind = StatusUnrecognized
	}

	return Status{Kind: kind, Raw: tag}
}

func (s Status) String() string {
	return s.Raw
}

// Known reports whether the tag belongs to the closed set.
func (s Status) Known() bool {
	return s.Kind != StatusUnrecognized
}

// IsActive reports whether the remote service is still working on the torrent.
func (s Status) IsActive() bool {
	switch s.Kind {
	case StatusMagnetConversion, StatusQueued, StatusDownloading, StatusCompressing, StatusUploading:
		return true
	default:
		return false
	}
}

// IsFailed reports whether the torrent ended in a terminal failure state.
func (s Status) IsFailed() bool {
	switch s.Kind {
	case StatusMagnetError, StatusError, StatusVirus, StatusDead:
		return true
	default:
		return false
	}
}

// NeedsFileSelection reports whether SelectFiles must be called before the
// torrent starts.
func (s Status) NeedsFileSelection() bool {
	return s.Kind == StatusWaitingFilesSelection
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Raw)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	*s = ParseStatus(tag)

	return nil
}
