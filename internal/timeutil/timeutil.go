// Package timeutil converts between wall-clock timestamps, local calendar
// dates and duration strings. Every function works in the local timezone
// of the running process (time.Local).
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// DateLayout is the canonical "YYYY-MM-DD" date key layout.
const DateLayout = "2006-01-02"

var timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// DateKey returns the local calendar date of t as "YYYY-MM-DD".
func DateKey(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// ParseDateKey returns local midnight of the given date key.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", key, err)
	}
	return t, nil
}

// Weekday returns the symbolic day name ("sun".."sat") of a date key.
func Weekday(key string) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return models.WeekdayNames[t.Weekday()], nil
}

// WeekdayOf returns the symbolic day name of t in local time.
func WeekdayOf(t time.Time) string {
	return models.WeekdayNames[t.In(time.Local).Weekday()]
}

// AddDays shifts a date key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, time.Local).Format(DateLayout), nil
}

// RecentDates returns the date keys of today and the n-1 days before it,
// most recent first.
func RecentDates(now time.Time, n int) []string {
	local := now.In(time.Local)
	y, m, d := local.Date()
	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, time.Date(y, m, d-i, 0, 0, 0, 0, time.Local).Format(DateLayout))
	}
	return dates
}

// TimeOfDay returns the local "HH:MM" of t.
func TimeOfDay(t time.Time) string {
	local := t.In(time.Local)
	return fmt.Sprintf("%02d:%02d", local.Hour(), local.Minute())
}

// IsValidTimeOfDay reports whether s is H:MM or HH:MM with hours in [0,23]
// and minutes in [0,59].
func IsValidTimeOfDay(s string) bool {
	_, _, ok := parseTimeOfDay(s)
	return ok
}

// Combine returns local midnight of dateKey plus the hh:mm offset.
func Combine(dateKey, hhmm string) (time.Time, error) {
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, err
	}
	hours, minutes, ok := parseTimeOfDay(hhmm)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time of day %q", hhmm)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, hours, minutes, 0, 0, time.Local), nil
}

func parseTimeOfDay(s string) (int, int, bool) {
	match := timeOfDayPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, 0, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, 0, false
	}
	return hours, minutes, true
}

// FormatDuration renders seconds as "HH:MM:SS". Negative input is clamped
// to zero; hours are not capped at 99.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatDurationShort renders seconds as "Nm" below an hour and "Nh" or
// "Nh Mm" above it.
func FormatDurationShort(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// Seconds returns the whole seconds between start and end, floored.
func Seconds(start, end time.Time) int64 {
	d := end.Sub(start)
	s := int64(d / time.Second)
	if d%time.Second < 0 {
		s--
	}
	return s
}
