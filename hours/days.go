package hours

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Layout of the interval boundaries in the portal's CSV exports.
	BoundaryLayout = "02.01.2006 15:04"
	dayLayout      = "02.01.2006"
	clockLayout    = "15:04"
)

// Midnight truncates t to the start of its UTC calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns every UTC calendar day touched by [start, end], in order.
func Days(start, end time.Time) []time.Time {
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	last := Midnight(end)
	for d := Midnight(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Latest is the window used when the caller asks for the most recent data.
func Latest(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	return now.Add(-24 * time.Hour), now
}

// PortalDay formats a day the way the export endpoints expect it.
func PortalDay(day time.Time) string {
	return day.UTC().Format(dayLayout) + " 00:00|UTC|DAY"
}

func ParseBoundary(s string) (time.Time, error) {
	t, err := time.ParseInLocation(BoundaryLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid interval boundary %q: %w", s, err)
	}
	return t, nil
}

// ParseEndBoundary accepts either a full boundary or a bare clock time,
// in which case the date is taken from start. "00:00" and "24:00" roll
// over to the next day.
func ParseEndBoundary(s string, start time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := ParseBoundary(s); err == nil {
		return t, nil
	}
	if s == "24:00" {
		return Midnight(start).AddDate(0, 0, 1), nil
	}
	c, err := time.ParseInLocation(clockLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid interval boundary %q: %w", s, err)
	}
	end := Midnight(start).Add(time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}

// SplitInterval splits a combined "<start><sep><end>" cell.
func SplitInterval(cell, sep string) (string, string, error) {
	start, end, ok := strings.Cut(cell, sep)
	if !ok {
		return "", "", fmt.Errorf("invalid interval %q, missing %q", cell, sep)
	}
	return strings.TrimSpace(start), strings.TrimSpace(end), nil
}

// Within reports whether t lies in [start, end].
func Within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
