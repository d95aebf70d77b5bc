package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs,
// optionally filtered to exclude certain statuses.
func completeTaskIDs(excludeStatuses ...models.TaskStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Board == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.TaskStatus]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		var ids []string
		for _, task := range Board.Snapshot().Tasks {
			if exclude[task.Status] {
				continue
			}
			if toComplete == "" || strings.HasPrefix(task.ID, toComplete) {
				// Include the name as description for better UX.
				ids = append(ids, task.ID+"\t"+string(task.Status)+": "+task.Name)
			}
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeRoutineIDs lists routine template IDs with their names.
func completeRoutineIDs(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Board == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, r := range Board.Routines() {
		if toComplete == "" || strings.HasPrefix(r.ID, toComplete) {
			ids = append(ids, r.ID+"\t"+r.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeTags lists the workspace's tags in board order.
func completeTags(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Board == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var tags []string
	for _, tag := range Board.Snapshot().TagOrder {
		if toComplete == "" || strings.HasPrefix(tag, toComplete) {
			tags = append(tags, tag)
		}
	}
	return tags, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns a completion function for task status values.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"not_started\tNot started yet",
		"working\tTimer running",
		"paused\tTimer paused",
		"waiting\tBlocked on someone else",
		"done\tCompleted",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completePeriods returns the review period values.
func completePeriods(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"week\tLast 7 days",
		"month\tLast month",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeWeekdays completes one entry of a comma-separated weekday list.
func completeWeekdays(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}
	var days []string
	for _, d := range models.WeekdayNames {
		if strings.HasPrefix(d, current) && !strings.Contains(","+prefix, ","+d+",") {
			days = append(days, prefix+d)
		}
	}
	return days, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
