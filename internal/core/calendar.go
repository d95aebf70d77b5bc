package core

import (
	"sort"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// CalendarDays is the number of days shown by the calendar view.
const CalendarDays = 7

// CalendarEntry is one session placed on a day timeline. An open session
// is laid out as ending at the time the view was built.
type CalendarEntry struct {
	TaskID      string    `json:"taskId"`
	TaskName    string    `json:"taskName"`
	Tag         string    `json:"tag"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Open        bool      `json:"open"`
	Seconds     int64     `json:"seconds"`
	StartMinute int       `json:"startMinute"`
}

// CalendarDay holds every session that started on Date.
type CalendarDay struct {
	Date         string          `json:"date"`
	Weekday      string          `json:"weekday"`
	Today        bool            `json:"today"`
	Entries      []CalendarEntry `json:"entries"`
	TotalSeconds int64           `json:"totalSeconds"`
}

// BuildCalendar reconstructs the last CalendarDays days, most recent
// first, from the sessions of every task. Overlapping sessions are kept as
// separate entries. The task collection is not modified.
func BuildCalendar(tasks []models.Task, now time.Time) []CalendarDay {
	dates := timeutil.RecentDates(now, CalendarDays)
	byDate := make(map[string]*CalendarDay, len(dates))
	days := make([]CalendarDay, len(dates))
	for i, d := range dates {
		weekday, _ := timeutil.Weekday(d)
		days[i] = CalendarDay{Date: d, Weekday: weekday, Today: i == 0, Entries: []CalendarEntry{}}
		byDate[d] = &days[i]
	}

	for _, t := range tasks {
		for _, s := range t.WorkSessions {
			day, ok := byDate[timeutil.DateKey(s.Start)]
			if !ok {
				continue
			}
			end := now
			if s.End != nil {
				end = *s.End
			}
			local := s.Start.In(time.Local)
			entry := CalendarEntry{
				TaskID:      t.ID,
				TaskName:    t.Name,
				Tag:         t.Tag,
				Start:       s.Start,
				End:         end,
				Open:        s.End == nil,
				Seconds:     timeutil.Seconds(s.Start, end),
				StartMinute: local.Hour()*60 + local.Minute(),
			}
			day.Entries = append(day.Entries, entry)
			day.TotalSeconds += entry.Seconds
		}
	}

	for i := range days {
		entries := days[i].Entries
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].Start.Before(entries[b].Start)
		})
	}
	return days
}
