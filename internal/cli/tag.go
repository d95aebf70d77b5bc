package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags and their column order",
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags in board order with task counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		order := Board.Snapshot().TagOrder
		if len(order) == 0 {
			fmt.Fprintln(out, "No tags defined.")
			return nil
		}
		for i, tag := range order {
			fmt.Fprintf(out, "  %2d. %-20s %d task(s)\n", i+1, tag, Board.TagUsage(tag))
		}
		return nil
	},
}

var tagAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a tag as the last column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if !Board.AddTag(args[0]) {
			return fmt.Errorf("tag %q is empty or already exists", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added tag %s\n", args[0])
		return nil
	},
}

var tagRmCmd = &cobra.Command{
	Use:               "rm <name>",
	Short:             "Delete a tag; its tasks become untagged",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTags,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		affected := Board.DeleteTag(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s (%d task(s) now untagged)\n", args[0], affected)
		return nil
	},
}

var tagMoveCmd = &cobra.Command{
	Use:               "move <name> <up|down>",
	Short:             "Move a tag column left (up) or right (down)",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTags,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		direction, err := parseDirection(args[1])
		if err != nil {
			return err
		}
		order := Board.MoveTag(args[0], direction)
		fmt.Fprintf(cmd.OutOrStdout(), "Tag order: %v\n", order)
		return nil
	},
}

func init() {
	tagCmd.AddCommand(tagListCmd, tagAddCmd, tagRmCmd, tagMoveCmd)
	rootCmd.AddCommand(tagCmd)
}
