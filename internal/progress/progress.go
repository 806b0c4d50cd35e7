// Package progress renders update runs for a person watching them: a
// bubbletea dialog when a terminal is attached and a throttled line
// reporter otherwise.
package progress

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/bluecraft-server/bcupdater/internal/update"
)

// Percent returns done/total in [0,1], or -1 when total is unknown.
func Percent(done, total int64) float64 {
	if total <= 0 {
		return -1
	}
	if done >= total {
		return 1
	}
	return float64(done) / float64(total)
}

// ByteCount formats a transfer position as "1.2 MB / 5.0 MB (24%)", or
// just "1.2 MB" when the total is unknown.
func ByteCount(done, total int64) string {
	if total < 0 {
		return humanize.Bytes(uint64(done))
	}
	pct := Percent(done, total)
	if pct < 0 {
		pct = 0
	}
	return fmt.Sprintf("%s / %s (%d%%)", humanize.Bytes(uint64(done)), humanize.Bytes(uint64(total)), int(pct*100))
}

// StatusLine is the final line shown for a run.
func StatusLine(res update.Result) string {
	if res.State == update.StateFailed && res.Err != nil {
		return fmt.Sprintf("%s: %v", res.State.Status(), res.Err)
	}
	return res.State.Status()
}
