package notifier

import (
	"fmt"
	"time"

	"github.com/italolelis/debrid_console/internal/format"
)

// TorrentAdded announces a magnet or torrent file submission. A zero at
// leaves the timestamp out.
func TorrentAdded(kind, name, id string, at time.Time) string {
	msg := fmt.Sprintf("🧲 New %s added (id %s)", kind, id)
	if name != "" {
		msg = fmt.Sprintf("🧲 New %s added: **%s** (id %s)", kind, name, id)
	}

	if at.IsZero() {
		return msg
	}

	return msg + " on " + format.Date(at)
}

// LinkUnrestricted announces a direct link that is ready to download.
func LinkUnrestricted(filename string, size int64) string {
	return fmt.Sprintf("🔓 Link ready: **%s** (%s)", filename, format.Bytes(size))
}

// FileSaved announces a file written to local storage.
func FileSaved(path string, size int64) string {
	return fmt.Sprintf("💾 Saved **%s** (%s)", path, format.Bytes(size))
}
