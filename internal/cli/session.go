package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/timeutil"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "List and edit the work sessions of a task",
	Long: `Work session commands. Sessions are numbered from 1 in start order, as
printed by "taskdesk session list". Times are local HH:MM on --date.`,
}

var sessionListCmd = &cobra.Command{
	Use:               "list <task-id>",
	Short:             "List a task's work sessions",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s)  total %s\n", displayName(task), shortID(task.ID),
			timeutil.FormatDuration(core.LiveElapsed(task, Clock.Now())))
		sessions := core.SortSessions(task.WorkSessions)
		if len(sessions) == 0 {
			fmt.Fprintln(out, "  No sessions recorded.")
			return nil
		}
		for i, s := range sessions {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, sessionLine(s))
		}
		return nil
	},
}

func sessionLine(s models.WorkSession) string {
	if s.End == nil {
		return fmt.Sprintf("%s %s-now    (running)", timeutil.DateKey(s.Start), timeutil.TimeOfDay(s.Start))
	}
	return fmt.Sprintf("%s %s-%s  %s", timeutil.DateKey(s.Start), timeutil.TimeOfDay(s.Start),
		timeutil.TimeOfDay(*s.End), timeutil.FormatDurationShort(timeutil.Seconds(s.Start, *s.End)))
}

var sessionAddInput core.SessionInput

var sessionAddCmd = &cobra.Command{
	Use:   "add <task-id> --start HH:MM --end HH:MM [--date YYYY-MM-DD]",
	Short: "Record a past work session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		in := sessionAddInput
		if in.Date == "" {
			in.Date = today()
		}
		updated, err := Board.AddSession(task.ID, in)
		if err != nil {
			return fmt.Errorf("adding session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s-%s on %s for %s, total %s\n",
			in.Start, in.End, in.Date, displayName(updated),
			timeutil.FormatDuration(core.LiveElapsed(updated, Clock.Now())))
		return nil
	},
}

var sessionEditInput core.SessionInput

var sessionEditCmd = &cobra.Command{
	Use:   "edit <task-id> <number>",
	Short: "Change the start or end of a session",
	Long: `Change a session's date, start or end. Flags left out keep their
current value. For the running session only the start can be changed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		index, err := parseSessionNumber(args[1])
		if err != nil {
			return err
		}
		sessions := core.SortSessions(task.WorkSessions)
		if index >= len(sessions) {
			return fmt.Errorf("task %s has %d session(s), no session %s", shortID(task.ID), len(sessions), args[1])
		}

		updated, err := Board.UpdateSession(task.ID, index, sessionEditInput)
		if err != nil {
			return fmt.Errorf("editing session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated session %d of %s, total %s\n", index+1, displayName(updated),
			timeutil.FormatDuration(core.LiveElapsed(updated, Clock.Now())))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <task-id> <number>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		index, err := parseSessionNumber(args[1])
		if err != nil {
			return err
		}
		if index >= len(task.WorkSessions) {
			return fmt.Errorf("task %s has %d session(s), no session %s", shortID(task.ID), len(task.WorkSessions), args[1])
		}
		updated, err := Board.RemoveSession(task.ID, index)
		if err != nil {
			return fmt.Errorf("removing session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed session %d of %s, total %s\n", index+1, displayName(updated),
			timeutil.FormatDuration(core.LiveElapsed(updated, Clock.Now())))
		return nil
	},
}

func init() {
	addSessionFlags(sessionAddCmd.Flags(), &sessionAddInput)
	_ = sessionAddCmd.MarkFlagRequired("start")
	_ = sessionAddCmd.MarkFlagRequired("end")
	addSessionFlags(sessionEditCmd.Flags(), &sessionEditInput)

	sessionAddCmd.ValidArgsFunction = completeTaskIDs()
	sessionEditCmd.ValidArgsFunction = completeTaskIDs()
	sessionRmCmd.ValidArgsFunction = completeTaskIDs()

	sessionCmd.AddCommand(sessionListCmd, sessionAddCmd, sessionEditCmd, sessionRmCmd)
	rootCmd.AddCommand(sessionCmd)
}
