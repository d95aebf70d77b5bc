package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionForgottenTimer = "timer_running_too_long"
	ConditionStaleWaiting   = "waiting_too_long"
	ConditionTooManyOpen    = "too_many_open_tasks"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      string        `json:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire. A zero threshold
// disables its check.
type AlertThresholds struct {
	ForgottenTimerHours int `yaml:"forgotten_timer_hours" json:"forgotten_timer_hours"`
	WaitingDays         int `yaml:"waiting_days" json:"waiting_days"`
	MaxOpenTasks        int `yaml:"max_open_tasks" json:"max_open_tasks"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		ForgottenTimerHours: 8,
		WaitingDays:         3,
		MaxOpenTasks:        30,
	}
}

// ThresholdsFromConfig converts the alerts configuration block.
func ThresholdsFromConfig(cfg models.AlertConfig) AlertThresholds {
	return AlertThresholds{
		ForgottenTimerHours: cfg.ForgottenTimerHours,
		WaitingDays:         cfg.WaitingDays,
		MaxOpenTasks:        cfg.MaxOpenTasks,
	}
}

// AlertEngine evaluates alert conditions against a task collection.
type AlertEngine interface {
	Evaluate(tasks []models.Task, now time.Time) []Alert
}

type alertEngine struct {
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine with the given thresholds.
func NewAlertEngine(thresholds AlertThresholds) AlertEngine {
	return &alertEngine{thresholds: thresholds}
}

// Evaluate checks every condition and returns the triggered alerts,
// high severity first.
func (ae *alertEngine) Evaluate(tasks []models.Task, now time.Time) []Alert {
	var alerts []Alert
	alerts = append(alerts, ae.checkForgottenTimers(tasks, now)...)
	alerts = append(alerts, ae.checkStaleWaiting(tasks, now)...)
	alerts = append(alerts, ae.checkOpenTasks(tasks, now)...)

	rank := map[AlertSeverity]int{SeverityHigh: 0, SeverityMedium: 1, SeverityLow: 2}
	sort.SliceStable(alerts, func(i, j int) bool {
		return rank[alerts[i].Severity] < rank[alerts[j].Severity]
	})
	return alerts
}

// checkForgottenTimers flags a working task whose current session has run
// longer than the threshold.
func (ae *alertEngine) checkForgottenTimers(tasks []models.Task, now time.Time) []Alert {
	if ae.thresholds.ForgottenTimerHours <= 0 {
		return nil
	}
	threshold := time.Duration(ae.thresholds.ForgottenTimerHours) * time.Hour

	var alerts []Alert
	for _, task := range tasks {
		if task.Status != models.StatusWorking || task.StartedAt == nil {
			continue
		}
		running := now.Sub(*task.StartedAt)
		if running > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("timer-%s", task.ID),
				Condition:   ConditionForgottenTimer,
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("timer for %q has been running for %s", task.Name, timeutil.FormatDurationShort(int64(running/time.Second))),
				TaskID:      task.ID,
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkStaleWaiting flags waiting tasks with no work recorded for longer
// than the threshold.
func (ae *alertEngine) checkStaleWaiting(tasks []models.Task, now time.Time) []Alert {
	if ae.thresholds.WaitingDays <= 0 {
		return nil
	}
	threshold := time.Duration(ae.thresholds.WaitingDays) * 24 * time.Hour

	var alerts []Alert
	for _, task := range tasks {
		if task.Status != models.StatusWaiting {
			continue
		}
		since, ok := lastActivity(task)
		if !ok || now.Sub(since) <= threshold {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("waiting-%s", task.ID),
			Condition:   ConditionStaleWaiting,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("%q has been waiting for more than %d days", task.Name, ae.thresholds.WaitingDays),
			TaskID:      task.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

// lastActivity is the latest session end, falling back to the
// registration date.
func lastActivity(task models.Task) (time.Time, bool) {
	var latest time.Time
	for _, s := range task.WorkSessions {
		if s.End != nil && s.End.After(latest) {
			latest = *s.End
		}
	}
	if !latest.IsZero() {
		return latest, true
	}
	registered, err := timeutil.ParseDateKey(task.RegisteredDate)
	if err != nil {
		return time.Time{}, false
	}
	return registered, true
}

// checkOpenTasks alerts when the number of unfinished tasks exceeds the
// threshold.
func (ae *alertEngine) checkOpenTasks(tasks []models.Task, now time.Time) []Alert {
	if ae.thresholds.MaxOpenTasks <= 0 {
		return nil
	}
	open := 0
	for _, task := range tasks {
		if !task.IsDone() {
			open++
		}
	}
	if open <= ae.thresholds.MaxOpenTasks {
		return nil
	}
	return []Alert{{
		ID:          "open-tasks",
		Condition:   ConditionTooManyOpen,
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d tasks are open, exceeding the maximum of %d", open, ae.thresholds.MaxOpenTasks),
		TriggeredAt: now,
	}}
}
