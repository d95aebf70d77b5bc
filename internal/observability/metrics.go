package observability

import (
	"fmt"
	"time"
)

// Metrics holds usage figures derived from the event log.
type Metrics struct {
	TasksCreated        int            `json:"tasks_created"`
	TasksCreatedBy      map[string]int `json:"tasks_created_by"`
	TasksStarted        int            `json:"tasks_started"`
	TasksCompleted      int            `json:"tasks_completed"`
	TasksDeleted        int            `json:"tasks_deleted"`
	TaskSwitches        int            `json:"task_switches"`
	SessionEdits        int            `json:"session_edits"`
	ExtractionFallbacks int            `json:"extraction_fallbacks"`
	RoutinesApplied     int            `json:"routines_applied"`
	EventCount          int            `json:"event_count"`
	OldestEvent         *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent         *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{TasksCreatedBy: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			n := countOf(event.Data)
			m.TasksCreated += n
			if source, ok := event.Data["source"].(string); ok {
				m.TasksCreatedBy[source] += n
			}
		case "routine.applied":
			n := countOf(event.Data)
			m.RoutinesApplied += n
			m.TasksCreated += n
			m.TasksCreatedBy["routine"] += n
		case "task.started":
			m.TasksStarted++
		case "task.paused":
			if reason, _ := event.Data["reason"].(string); reason == "switched" {
				m.TaskSwitches++
			}
		case "task.completed":
			m.TasksCompleted++
		case "task.deleted":
			m.TasksDeleted++
		case "session.added", "session.updated", "session.removed":
			m.SessionEdits++
		case "extraction.fallback":
			m.ExtractionFallbacks++
		}
	}

	return m, nil
}

// countOf returns data["count"] for batch events and 1 otherwise. Numbers
// read back from JSON are float64.
func countOf(data map[string]any) int {
	switch v := data["count"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}
