// Package format renders sizes, rates and durations for logs and
// notifications.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout renders timestamps as "Jan 2, 2006, 03:04 PM".
const DateLayout = "Jan 2, 2006, 03:04 PM"

// Bytes renders n with binary prefixes, e.g. "1.5 GiB".
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}

	return humanize.IBytes(uint64(n))
}

// Speed renders a transfer rate, e.g. "2.0 MiB/s".
func Speed(bytesPerSecond int64) string {
	return Bytes(bytesPerSecond) + "/s"
}

// TimeRemaining renders seconds in its largest whole unit: 45s, 12m, 3h, 2d.
func TimeRemaining(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", max(seconds, 0))
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh", seconds/3600)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}

// Date renders t in local time with DateLayout. The zero time renders empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Local().Format(DateLayout)
}

// Percent renders a 0-100 progress value with up to two decimals.
func Percent(p float64) string {
	return humanize.FtoaWithDigits(p, 2) + "%"
}
