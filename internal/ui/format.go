package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

// formatDuration renders d with at most two units, e.g. "1 s" or "2 s 300 ms".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0 s"
	}
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}

// formatCadence labels an autoplay interval as a per-frame period.
func formatCadence(d time.Duration) string {
	return formatDuration(d) + "/frame"
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// formatUpdated renders an album timestamp relative to now. Unparseable
// values are shown as stored.
func formatUpdated(value string) string {
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(t)
}

// formatTimestamp formats a poll time with a relative indicator.
func formatTimestamp(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	since := now.Sub(t)
	s := t.Format("15:04:05")
	switch {
	case since < time.Minute:
		s += " (now)"
	case since < time.Hour:
		s += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		s += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return s
}

func formatZoom(scale float64) string {
	return fmt.Sprintf("%.0f%%", scale*100)
}
