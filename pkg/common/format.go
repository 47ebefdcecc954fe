package common

import (
	"fmt"
	"regexp"
	"strings"
)

// videoIDPattern matches the 11-character YouTube video identifier.
var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// IsValidVideoID reports whether id is a well-formed 11-character video ID.
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// FormatDuration renders a duration in whole seconds as "H:MM:SS" or
// "M:SS" when shorter than an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// AbbreviateCount renders a count the way video sites do: 999 stays
// "999", 1500 becomes "1.5K", 2500000 becomes "2.5M".
func AbbreviateCount(n int64) string {
	if n < 0 {
		n = 0
	}
	switch {
	case n >= 1_000_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1e9)) + "B"
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1e6)) + "M"
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1f", float64(n)/1e3)) + "K"
	default:
		return fmt.Sprintf("%d", n)
	}
}

// trimZero drops a trailing ".0" so 2000 renders as "2K", not "2.0K".
func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}

// TruncateDescription shortens a description to max runes, appending an
// ellipsis when anything was cut.
func TruncateDescription(desc string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(desc)
	if len(runes) <= max {
		return desc
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
