package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusWorking    = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	statusPaused     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusWaiting    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	statusNotStarted = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

var statusLabels = map[models.TaskStatus]string{
	models.StatusNotStarted: "todo",
	models.StatusWorking:    "working",
	models.StatusPaused:     "paused",
	models.StatusWaiting:    "waiting",
	models.StatusDone:       "done",
}

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusWorking:
		return statusWorking
	case models.StatusPaused:
		return statusPaused
	case models.StatusWaiting:
		return statusWaiting
	case models.StatusDone:
		return statusDone
	default:
		return statusNotStarted
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func statusBadge(status models.TaskStatus) string {
	return styleForStatus(status).Render(fmt.Sprintf("%-7s", statusLabels[status]))
}

func tagTitle(tag string) string {
	if tag == "" {
		return "Untagged"
	}
	return tag
}

// taskLine renders one board row: id, status, elapsed time and name.
func taskLine(t models.Task, now time.Time) string {
	line := fmt.Sprintf("%-8s %s %s  %s",
		shortID(t.ID),
		statusBadge(t.Status),
		timeutil.FormatDuration(core.LiveElapsed(t, now)),
		displayName(t),
	)
	if t.EstimatedMinutes != nil {
		line += dimStyle.Render(fmt.Sprintf("  (est. %s)", timeutil.FormatDurationShort(int64(*t.EstimatedMinutes)*60)))
	}
	if t.StatusComment != "" {
		line += dimStyle.Render("  - " + t.StatusComment)
	}
	return line
}

func displayName(t models.Task) string {
	if strings.TrimSpace(t.Name) == "" {
		return dimStyle.Render("(untitled)")
	}
	return t.Name
}

func renderToday(w io.Writer, groups []core.TagGroup, now time.Time) {
	var total int64
	for _, g := range groups {
		if len(g.Tasks) == 0 {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s (%d)", tagTitle(g.Tag), len(g.Tasks))))
		for _, t := range g.Tasks {
			fmt.Fprintf(w, "  %s\n", taskLine(t, now))
			total += core.LiveElapsed(t, now)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total on board: %s\n", timeutil.FormatDuration(total))
}

func renderTaskTable(w io.Writer, tasks []models.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	fmt.Fprintf(w, "%-8s %-7s %-8s %-10s %-12s %s\n", "ID", "STATUS", "ELAPSED", "TAG", "REGISTERED", "NAME")
	for _, t := range tasks {
		fmt.Fprintf(w, "%-8s %s %-8s %-10s %-12s %s\n",
			shortID(t.ID),
			statusBadge(t.Status),
			timeutil.FormatDuration(core.LiveElapsed(t, now)),
			tagTitle(t.Tag),
			t.RegisteredDate,
			displayName(t),
		)
	}
}

func renderCalendar(w io.Writer, days []core.CalendarDay) {
	for _, day := range days {
		heading := fmt.Sprintf("%s %s  %s", day.Date, day.Weekday, timeutil.FormatDurationShort(day.TotalSeconds))
		if day.Today {
			heading += " (today)"
		}
		fmt.Fprintln(w, headerStyle.Render(heading))
		if len(day.Entries) == 0 {
			fmt.Fprintln(w, dimStyle.Render("  no sessions"))
			continue
		}
		for _, e := range day.Entries {
			end := timeutil.TimeOfDay(e.End)
			if e.Open {
				end = "now  "
			}
			fmt.Fprintf(w, "  %s-%s  %-8s %-10s %s\n",
				timeutil.TimeOfDay(e.Start), end,
				timeutil.FormatDurationShort(e.Seconds),
				tagTitle(e.Tag), e.TaskName)
		}
	}
}

func renderReview(w io.Writer, stats core.ReviewStats) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Review (%s, %s to %s)", stats.Period, stats.From, stats.To)))
	fmt.Fprintf(w, "  %-16s %d\n", "Tasks:", stats.Total)
	fmt.Fprintf(w, "  %-16s %d\n", "Completed:", stats.Done)
	fmt.Fprintf(w, "  %-16s %d%%\n", "Completion rate:", stats.CompletionRate)
	fmt.Fprintf(w, "  %-16s %s\n", "Time worked:", timeutil.FormatDurationShort(stats.ElapsedSeconds))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12s %6s %6s %10s\n", "TAG", "TASKS", "DONE", "TIME")
	for _, row := range stats.Tags {
		if row.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-12s %6d %6d %10s\n", row.Label(), row.Count, row.Done, timeutil.FormatDurationShort(row.ElapsedSeconds))
	}
}
