package handlers

import (
	"fmt"
	"time"
)

// timeLayout returns the Go time layout for the given preference.
// timeFormat: "12" or "24". Default "12".
func timeLayout(timeFormat string) string {
	if timeFormat == "24" {
		return "15:04"
	}
	return "3:04 PM"
}

// dateLayout returns the Go time layout for the given preference.
// dateFormat: "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd". Default "dd-mm-yyyy".
func dateLayout(dateFormat string) string {
	switch dateFormat {
	case "mm-dd-yyyy":
		return "01-02-2006"
	case "yyyy-mm-dd":
		return "2006-01-02"
	default:
		return "02-01-2006" // dd-mm-yyyy
	}
}

// FormatDateTime formats t with the user's date and time preferences.
func FormatDateTime(t time.Time, timeFormat, dateFormat string) string {
	if timeFormat == "" {
		timeFormat = "12"
	}
	if dateFormat == "" {
		dateFormat = "dd-mm-yyyy"
	}
	return t.Format(dateLayout(dateFormat) + " " + timeLayout(timeFormat))
}

// FormatAge describes how long ago t was, relative to now.
func FormatAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case t.IsZero():
		return "never"
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 60*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	default:
		return plural(int(d/(30*24*time.Hour)), "month") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatUpdated renders the "last updated" line shown under each feature.
func FormatUpdated(when time.Time, by string, now time.Time, timeFormat, dateFormat string) string {
	if when.IsZero() {
		return ""
	}
	s := FormatDateTime(when, timeFormat, dateFormat) + " (" + FormatAge(when, now) + ")"
	if by != "" {
		s += " by " + by
	}
	return s
}
