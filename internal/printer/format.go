package printer

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/slok/magnetctl/internal/model"
)

const progressBarWidth = 20

// FormatBytes returns a human-readable byte size string (e.g. "512 B", "1.5 KiB", "700 MiB").
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// TimeAgo returns a human-readable relative time string in UTC (e.g. "3 hours ago (UTC)").
func TimeAgo(t time.Time) string {
	now := time.Now().UTC()
	if t.After(now) {
		return "in the future (UTC)"
	}
	return humanize.RelTime(t.UTC(), now, "ago", "from now") + " (UTC)"
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// ProgressBar renders a percent as a fixed width bar (e.g. "[########------------]  40%").
func ProgressBar(percent int) string {
	percent = min(max(percent, 0), 100)
	filled := percent * progressBarWidth / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", progressBarWidth-filled), percent)
}

// TotalSize returns the sum of the file sizes.
func TotalSize(files []model.File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
