package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (add, list, start, pause, wait, done, rm, edit, move)",
	Long: `Task management commands.

Tasks are addressed by id or any unique prefix of it, as shown in the
first column of "taskdesk task list" and "taskdesk today".`,
}

var (
	taskAddTag      string
	taskAddMemo     string
	taskAddEstimate int
)

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a task to the top of its tag column",
	Long: `Add a task to the today board. The task is placed at the top of its
tag column. A tag that does not exist files the task as untagged.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		name := strings.TrimSpace(strings.Join(args, " "))
		if name == "" {
			return fmt.Errorf("task name must not be empty")
		}

		task := Board.InsertManual(taskAddTag)
		patch := models.TaskPatch{Name: &name}
		if taskAddMemo != "" {
			patch.Memo = &taskAddMemo
		}
		if taskAddEstimate > 0 {
			patch.EstimatedMinutes = &taskAddEstimate
		}
		task, err := Board.UpdateTask(task.ID, patch)
		if err != nil {
			return fmt.Errorf("naming task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added task %s\n", shortID(task.ID))
		fmt.Fprintf(out, "  Name: %s\n", task.Name)
		fmt.Fprintf(out, "  Tag:  %s\n", tagTitle(task.Tag))
		return nil
	},
}

var (
	taskListFilter core.TaskFilter
	taskListStatus string
	taskListJSON   bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks matching a filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		status, err := parseStatus(taskListStatus)
		if err != nil {
			return err
		}
		filter := taskListFilter
		filter.Status = status
		tasks := Board.Filter(filter)

		if taskListJSON {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		renderTaskTable(cmd.OutOrStdout(), tasks, Clock.Now())
		return nil
	},
}

// transitionCommand builds one of the start/pause/wait/done commands.
func transitionCommand(use, short, verb string, apply func(core.TaskManager, string) (models.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:               use + " <task-id>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTaskIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := resolveTask(args[0])
			if err != nil {
				return err
			}
			updated, err := apply(Board, task.ID)
			if err != nil {
				return fmt.Errorf("updating task %s: %w", shortID(task.ID), err)
			}
			if updated.Status == task.Status {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is %s, nothing to do.\n", shortID(task.ID), statusLabels[task.Status])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, displayName(updated), shortID(updated.ID))
			return nil
		},
	}
}

var (
	taskStartCmd = transitionCommand("start", "Start the timer on a task, pausing any other running task", "Started", core.TaskManager.Start)
	taskPauseCmd = transitionCommand("pause", "Pause a running task", "Paused", core.TaskManager.Pause)
	taskWaitCmd  = transitionCommand("wait", "Mark a task as waiting on someone else", "Waiting on", core.TaskManager.Wait)
	taskDoneCmd  = transitionCommand("done", "Mark a task as done", "Completed", core.TaskManager.Complete)
)

var taskRmCmd = &cobra.Command{
	Use:               "rm <task-id>",
	Short:             "Delete a task and its sessions",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		if err := Board.Delete(task.ID); err != nil {
			return fmt.Errorf("deleting task %s: %w", shortID(task.ID), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s)\n", displayName(task), shortID(task.ID))
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task's name, memo, status comment, tag or estimate",
	Long: `Edit a task's text fields. Only the flags given are changed. Timer state
is changed with start/pause/wait/done and session commands, never here.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var patch models.TaskPatch
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("memo") {
			v, _ := flags.GetString("memo")
			patch.Memo = &v
		}
		if flags.Changed("comment") {
			v, _ := flags.GetString("comment")
			patch.StatusComment = &v
		}
		if flags.Changed("tag") {
			v, _ := flags.GetString("tag")
			patch.Tag = &v
		}
		if flags.Changed("estimate") {
			v, _ := flags.GetInt("estimate")
			patch.EstimatedMinutes = &v
		}
		if patch.Empty() {
			return fmt.Errorf("nothing to change, pass at least one of --name, --memo, --comment, --tag, --estimate")
		}

		updated, err := Board.UpdateTask(task.ID, patch)
		if err != nil {
			return fmt.Errorf("editing task %s: %w", shortID(task.ID), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", displayName(updated), shortID(updated.ID))
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:               "move <task-id> <up|down>",
	Short:             "Move a task up or down within its tag column",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTaskIDs(models.StatusDone),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := resolveTask(args[0])
		if err != nil {
			return err
		}
		direction, err := parseDirection(args[1])
		if err != nil {
			return err
		}
		if err := Board.MoveTask(task.ID, direction); err != nil {
			return fmt.Errorf("moving task %s: %w", shortID(task.ID), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s %s\n", displayName(task), strings.ToLower(args[1]))
		return nil
	},
}

func init() {
	addDraftFlags(taskAddCmd.Flags(), &taskAddTag, &taskAddMemo, &taskAddEstimate)
	_ = taskAddCmd.RegisterFlagCompletionFunc("tag", completeTags)

	addFilterFlags(taskListCmd.Flags(), &taskListFilter, &taskListStatus)
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output tasks as JSON")
	_ = taskListCmd.RegisterFlagCompletionFunc("tag", completeTags)
	_ = taskListCmd.RegisterFlagCompletionFunc("status", completeStatuses)

	taskEditCmd.Flags().String("name", "", "New task name")
	taskEditCmd.Flags().String("memo", "", "New memo")
	taskEditCmd.Flags().String("comment", "", "New status comment")
	taskEditCmd.Flags().String("tag", "", "New tag (empty for untagged)")
	taskEditCmd.Flags().Int("estimate", 0, "New estimate in minutes")
	_ = taskEditCmd.RegisterFlagCompletionFunc("tag", completeTags)

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskStartCmd, taskPauseCmd, taskWaitCmd,
		taskDoneCmd, taskRmCmd, taskEditCmd, taskMoveCmd)
	rootCmd.AddCommand(taskCmd)
}
