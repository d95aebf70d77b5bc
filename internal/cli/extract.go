package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/internal/timeutil"
)

var extractRegister bool

var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Turn free text into task drafts",
	Long: `Extract task drafts from free text. The text is read from the arguments, or
from standard input when no arguments are given or the only argument is "-".

When the AI service is unavailable or its reply cannot be parsed, a local
heuristic produces one draft per line. Use --register to add the drafts to
the board.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		if Extractor == nil {
			return fmt.Errorf("extractor not initialized")
		}

		input, err := extractInput(cmd, args)
		if err != nil {
			return err
		}

		result, err := Extractor.Extract(cmd.Context(), input, Board.Snapshot().TagOrder)
		if err != nil {
			return fmt.Errorf("extracting tasks: %w", err)
		}

		out := cmd.OutOrStdout()
		if result.FellBack() {
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(fmt.Sprintf("AI extraction unavailable (%v), used local heuristic", result.Err)))
		}
		if len(result.Drafts) == 0 {
			fmt.Fprintln(out, "No tasks found in input.")
			return nil
		}

		if !extractRegister {
			for i, d := range result.Drafts {
				line := fmt.Sprintf("%2d. %s", i+1, d.Name)
				if d.Tag != "" {
					line += dimStyle.Render(" [" + d.Tag + "]")
				}
				if d.EstimatedMinutes != nil {
					line += dimStyle.Render(" ~" + timeutil.FormatDurationShort(int64(*d.EstimatedMinutes)*60))
				}
				fmt.Fprintln(out, line)
				if d.Memo != "" {
					fmt.Fprintf(out, "    %s\n", dimStyle.Render(d.Memo))
				}
			}
			return nil
		}

		created := Board.RegisterExtracted(result.Drafts)
		for _, t := range created {
			fmt.Fprintf(out, "Added task %s %s\n", shortID(t.ID), t.Name)
		}
		return nil
	},
}

func extractInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading standard input: %w", err)
	}
	return string(data), nil
}

func init() {
	extractCmd.Flags().BoolVar(&extractRegister, "register", false, "Add the extracted drafts to the board")
	rootCmd.AddCommand(extractCmd)
}
