package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/pkg/models"
)

var routineCmd = &cobra.Command{
	Use:   "routine",
	Short: "Manage recurring task templates",
	Long: `Routine templates describe tasks that recur on given weekdays. Applying a
routine creates an ordinary task; the task keeps no link to the template.`,
}

var routineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List routine templates, marking those due today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		routines := Board.Routines()
		if len(routines) == 0 {
			fmt.Fprintln(out, "No routines defined.")
			return nil
		}
		due := make(map[string]bool)
		for _, r := range Board.DueToday() {
			due[r.ID] = true
		}
		for _, r := range routines {
			marker := " "
			if due[r.ID] {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-8s %-24s %-10s %s\n", marker, shortID(r.ID), r.Name, tagTitle(r.Tag), strings.Join(r.Days, ","))
		}
		fmt.Fprintln(out, dimStyle.Render("* due today"))
		return nil
	},
}

var (
	routineAddTag      string
	routineAddMemo     string
	routineAddEstimate int
	routineAddDays     []string
)

var routineAddCmd = &cobra.Command{
	Use:   "add <name> --days mon,wed,fri",
	Short: "Add a routine template",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		routine := models.RoutineTemplate{
			Name: strings.Join(args, " "),
			Tag:  routineAddTag,
			Memo: routineAddMemo,
			Days: routineAddDays,
		}
		if routineAddEstimate > 0 {
			estimate := routineAddEstimate
			routine.EstimatedMinutes = &estimate
		}
		stored, err := Board.PutRoutine(routine)
		if err != nil {
			return fmt.Errorf("adding routine: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added routine %s (%s) on %s\n", stored.Name, shortID(stored.ID), strings.Join(stored.Days, ","))
		return nil
	},
}

var routineRmCmd = &cobra.Command{
	Use:               "rm <routine-id>",
	Short:             "Delete a routine template",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRoutineIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolveRoutine(args[0])
		if err != nil {
			return err
		}
		Board.DeleteRoutine(r.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted routine %s\n", r.Name)
		return nil
	},
}

var routineApplyCmd = &cobra.Command{
	Use:               "apply [routine-id...]",
	Short:             "Create tasks from routines (default: those due today)",
	ValidArgsFunction: completeRoutineIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		var ids []string
		for _, ref := range args {
			r, err := resolveRoutine(ref)
			if err != nil {
				return err
			}
			ids = append(ids, r.ID)
		}
		if len(ids) == 0 {
			for _, r := range Board.DueToday() {
				ids = append(ids, r.ID)
			}
		}

		out := cmd.OutOrStdout()
		created := Board.ApplyRoutines(ids)
		if len(created) == 0 {
			fmt.Fprintln(out, "No routines applied.")
			return nil
		}
		for _, t := range created {
			fmt.Fprintf(out, "Added task %s %s\n", shortID(t.ID), t.Name)
		}
		return nil
	},
}

// resolveRoutine finds a routine by full id or unique id prefix.
func resolveRoutine(ref string) (models.RoutineTemplate, error) {
	if err := requireBoard(); err != nil {
		return models.RoutineTemplate{}, err
	}
	var matches []models.RoutineTemplate
	for _, r := range Board.Routines() {
		if r.ID == ref {
			return r, nil
		}
		if ref != "" && strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return models.RoutineTemplate{}, fmt.Errorf("no routine matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.RoutineTemplate{}, fmt.Errorf("routine id %q is ambiguous, it matches %d routines", ref, len(matches))
	}
}

func init() {
	addDraftFlags(routineAddCmd.Flags(), &routineAddTag, &routineAddMemo, &routineAddEstimate)
	routineAddCmd.Flags().StringSliceVar(&routineAddDays, "days", nil, "Weekdays the routine is due (sun,mon,tue,wed,thu,fri,sat)")
	_ = routineAddCmd.MarkFlagRequired("days")
	_ = routineAddCmd.RegisterFlagCompletionFunc("tag", completeTags)
	_ = routineAddCmd.RegisterFlagCompletionFunc("days", completeWeekdays)

	routineCmd.AddCommand(routineListCmd, routineAddCmd, routineRmCmd, routineApplyCmd)
	rootCmd.AddCommand(routineCmd)
}
