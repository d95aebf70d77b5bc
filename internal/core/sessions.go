package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// SessionValidationError reports a rejected manual session edit. The stored
// session is left untouched when it is returned.
type SessionValidationError struct {
	Field  string
	Reason string
}

func (e *SessionValidationError) Error() string {
	return fmt.Sprintf("invalid session %s: %s", e.Field, e.Reason)
}

// SessionInput is a user-entered session interval. Date is the calendar
// date the times refer to; End is ignored when editing the open session.
type SessionInput struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// RecomputeAccumulated returns the sum of closed session durations, each
// floored to whole seconds before summing. Open sessions are excluded.
func RecomputeAccumulated(sessions []models.WorkSession) int64 {
	var total int64
	for _, s := range sessions {
		if s.End == nil {
			continue
		}
		total += timeutil.Seconds(s.Start, *s.End)
	}
	return total
}

// SortSessions returns a copy of sessions ordered ascending by start.
// Sessions with equal starts keep their relative order.
func SortSessions(sessions []models.WorkSession) []models.WorkSession {
	out := cloneSessions(sessions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// AddSession appends s and re-sorts by start. Overlaps with existing
// sessions are not checked.
func AddSession(sessions []models.WorkSession, s models.WorkSession) []models.WorkSession {
	out := append(cloneSessions(sessions), s)
	return SortSessions(out)
}

// UpdateSession replaces the session at index (in start order). An index
// out of range returns the sessions unchanged.
func UpdateSession(sessions []models.WorkSession, index int, s models.WorkSession) []models.WorkSession {
	out := SortSessions(sessions)
	if index < 0 || index >= len(out) {
		return out
	}
	out[index] = s
	return SortSessions(out)
}

// RemoveSession drops the session at index (in start order). An index out
// of range returns the sessions unchanged.
func RemoveSession(sessions []models.WorkSession, index int) []models.WorkSession {
	out := SortSessions(sessions)
	if index < 0 || index >= len(out) {
		return out
	}
	return append(out[:index], out[index+1:]...)
}

// ValidateSessionInput checks a user-entered interval and converts it to
// timestamps. When open is true only the start is validated and the
// returned end is nil. Neither bound may lie after now.
func ValidateSessionInput(in SessionInput, open bool, now time.Time) (time.Time, *time.Time, error) {
	return validateSession(in, open, now, nil)
}

// validateSession is ValidateSessionInput with an optional session being
// edited. A bound left empty in the input keeps prev's timestamp, moved to
// in.Date when the date changes.
func validateSession(in SessionInput, open bool, now time.Time, prev *models.WorkSession) (time.Time, *time.Time, error) {
	var start time.Time
	if prev != nil && in.Start == "" {
		s, err := keepBound(in.Date, prev.Start)
		if err != nil {
			return time.Time{}, nil, err
		}
		start = s
	} else {
		if !timeutil.IsValidTimeOfDay(in.Start) {
			return time.Time{}, nil, &SessionValidationError{Field: "start", Reason: "time must be H:MM or HH:MM"}
		}
		s, err := timeutil.Combine(in.Date, in.Start)
		if err != nil {
			return time.Time{}, nil, &SessionValidationError{Field: "date", Reason: err.Error()}
		}
		start = s
	}

	var end *time.Time
	if !open {
		var e time.Time
		if prev != nil && prev.End != nil && in.End == "" {
			kept, err := keepBound(in.Date, *prev.End)
			if err != nil {
				return time.Time{}, nil, err
			}
			e = kept
		} else {
			if !timeutil.IsValidTimeOfDay(in.End) {
				return time.Time{}, nil, &SessionValidationError{Field: "end", Reason: "time must be H:MM or HH:MM"}
			}
			combined, err := timeutil.Combine(in.Date, in.End)
			if err != nil {
				return time.Time{}, nil, &SessionValidationError{Field: "date", Reason: err.Error()}
			}
			e = combined
		}
		if !start.Before(e) {
			return time.Time{}, nil, &SessionValidationError{Field: "end", Reason: "start must be before end"}
		}
		if e.After(now) {
			return time.Time{}, nil, &SessionValidationError{Field: "end", Reason: "cannot be in the future"}
		}
		end = &e
	}

	if start.After(now) {
		return time.Time{}, nil, &SessionValidationError{Field: "start", Reason: "cannot be in the future"}
	}
	return start, end, nil
}

// keepBound returns ts unchanged when it already falls on date, otherwise
// the same wall-clock time on date.
func keepBound(date string, ts time.Time) (time.Time, error) {
	if date == timeutil.DateKey(ts) {
		return ts, nil
	}
	day, err := timeutil.Combine(date, "00:00")
	if err != nil {
		return time.Time{}, &SessionValidationError{Field: "date", Reason: err.Error()}
	}
	h, m, sec := ts.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, sec, ts.Nanosecond(), day.Location()), nil
}

func cloneSessions(sessions []models.WorkSession) []models.WorkSession {
	out := make([]models.WorkSession, len(sessions))
	for i, s := range sessions {
		out[i] = s
		if s.End != nil {
			end := *s.End
			out[i].End = &end
		}
	}
	return out
}
