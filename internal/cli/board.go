package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

const shortIDLen = 8

func requireBoard() error {
	if Board == nil {
		return fmt.Errorf("board not initialized")
	}
	return nil
}

// shortID returns the abbreviated form of a task id shown in listings.
func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(ref string) (models.Task, error) {
	if err := requireBoard(); err != nil {
		return models.Task{}, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Task{}, fmt.Errorf("task id is required")
	}
	if task, err := Board.Task(ref); err == nil {
		return task, nil
	}

	var matches []models.Task
	for _, task := range Board.Snapshot().Tasks {
		if strings.HasPrefix(task.ID, ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("task id %q is ambiguous, it matches %d tasks", ref, len(matches))
	}
}

// parseSessionNumber converts a 1-based session number from the command
// line to an index.
func parseSessionNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid session number %q, must be a positive integer", s)
	}
	return n - 1, nil
}

// today returns the current local date key.
func today() string {
	return timeutil.DateKey(Clock.Now())
}
