package debrid

import "sort"

// FormatApple is the HLS container the remote service exposes for playback.
const FormatApple = "apple"

// StreamingLink is a playlist URL for one container format.
type StreamingLink struct {
	Format string `json:"format"`
	URL    string `json:"url"`
}

// TranscodeLinks maps a container format to its quality variants and URLs.
type TranscodeLinks map[string]map[string]string

// Playlist returns the full-quality playlist for format. A successful remote
// answer without a usable entry yields ErrNoPlaylist.
func (l TranscodeLinks) Playlist(format string) (StreamingLink, error) {
	variants, ok := l[format]
	if !ok || len(variants) == 0 {
		return StreamingLink{}, ErrNoPlaylist
	}

	if url := variants["full"]; url != "" {
		return StreamingLink{Format: format, URL: url}, nil
	}

	// no "full" entry; fall back to the first non-empty quality by name
	qualities := make([]string, 0, len(variants))
	for q := range variants {
		qualities = append(qualities, q)
	}

	sort.Strings(qualities)

	for _, q := range qualities {
		if url := variants[q]; url != "" {
			return StreamingLink{Format: format, URL: url}, nil
		}
	}

	return StreamingLink{}, ErrNoPlaylist
}
