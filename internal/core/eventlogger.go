package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Event types written by the task manager and extractor.
const (
	EventTaskStarted        = "task.started"
	EventTaskPaused         = "task.paused"
	EventTaskWaiting        = "task.waiting"
	EventTaskCompleted      = "task.completed"
	EventTaskDeleted        = "task.deleted"
	EventTaskUpdated        = "task.updated"
	EventTaskCreated        = "task.created"
	EventSessionAdded       = "session.added"
	EventSessionUpdated     = "session.updated"
	EventSessionRemoved     = "session.removed"
	EventTagAdded           = "tag.added"
	EventTagRemoved         = "tag.removed"
	EventExtractionFallback = "extraction.fallback"
	EventWorkspaceReplaced  = "workspace.replaced"
	EventRoutinesApplied    = "routine.applied"
)
