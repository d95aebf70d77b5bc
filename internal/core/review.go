package core

import (
	"fmt"
	"math"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// ReviewPeriod selects the review window.
type ReviewPeriod string

const (
	PeriodWeek  ReviewPeriod = "week"
	PeriodMonth ReviewPeriod = "month"
)

// UntaggedLabel is the display name of the row collecting tasks with no
// known tag. The row itself has an empty Tag, so a user tag spelled the
// same way never merges with it.
const UntaggedLabel = "(untagged)"

// ParsePeriod converts user input into a ReviewPeriod. Empty input means
// a week.
func ParsePeriod(s string) (ReviewPeriod, error) {
	switch ReviewPeriod(s) {
	case "", PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("invalid review period %q, must be one of: week, month", s)
	}
}

// Window returns the inclusive date-key range covered by the period
// ending at now.
func (p ReviewPeriod) Window(now time.Time) (string, string) {
	from := now.AddDate(0, 0, -7)
	if p == PeriodMonth {
		from = now.AddDate(0, -1, 0)
	}
	return timeutil.DateKey(from), timeutil.DateKey(now)
}

// TagStats is one row of the per-tag breakdown.
type TagStats struct {
	Tag            string `json:"tag"`
	Untagged       bool   `json:"untagged,omitempty"`
	Count          int    `json:"count"`
	Done           int    `json:"done"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
}

// Label returns the row's display name.
func (s TagStats) Label() string {
	if s.Untagged {
		return UntaggedLabel
	}
	return s.Tag
}

// ReviewStats aggregates the tasks registered inside a review window.
type ReviewStats struct {
	Period         ReviewPeriod `json:"period"`
	From           string       `json:"from"`
	To             string       `json:"to"`
	Total          int          `json:"total"`
	Done           int          `json:"done"`
	CompletionRate int          `json:"completionRate"`
	ElapsedSeconds int64        `json:"elapsedSeconds"`
	Tags           []TagStats   `json:"tags"`
}

// CompletionRate returns round(done/total*100), or 0 when total is 0.
func CompletionRate(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// BuildReview aggregates tasks registered within the period. The
// breakdown has one row per known tag, in the given order, followed by
// the untagged bucket.
func BuildReview(tasks []models.Task, tags []string, period ReviewPeriod, now time.Time) ReviewStats {
	from, to := period.Window(now)
	stats := ReviewStats{Period: period, From: from, To: to}

	rows := make([]TagStats, 0, len(tags)+1)
	index := make(map[string]int, len(tags))
	for _, tag := range tags {
		if _, dup := index[tag]; dup || tag == "" {
			continue
		}
		index[tag] = len(rows)
		rows = append(rows, TagStats{Tag: tag})
	}
	untagged := len(rows)
	rows = append(rows, TagStats{Untagged: true})

	for _, t := range tasks {
		if t.RegisteredDate < from || t.RegisteredDate > to {
			continue
		}
		elapsed := LiveElapsed(t, now)
		stats.Total++
		stats.ElapsedSeconds += elapsed

		row, ok := index[t.Tag]
		if !ok {
			row = untagged
		}
		rows[row].Count++
		rows[row].ElapsedSeconds += elapsed
		if t.IsDone() {
			stats.Done++
			rows[row].Done++
		}
	}

	stats.CompletionRate = CompletionRate(stats.Done, stats.Total)
	stats.Tags = rows
	return stats
}
