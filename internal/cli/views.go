package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskdesk/internal/core"
)

var todayJSON bool

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's board grouped by tag",
	Long: `Show the tasks on today's board, one column per tag in tag order followed by
untagged tasks. The board holds every unfinished task plus tasks completed today.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		groups := Board.Today()
		if todayJSON {
			return writeJSON(cmd, groups)
		}
		renderToday(cmd.OutOrStdout(), groups, Clock.Now())
		return nil
	},
}

var calendarJSON bool

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show work sessions of the last seven days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		days := Board.Calendar()
		if calendarJSON {
			return writeJSON(cmd, days)
		}
		renderCalendar(cmd.OutOrStdout(), days)
		return nil
	},
}

var (
	reviewPeriod  string
	reviewSummary bool
	reviewJSON    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Summarize tasks registered in the last week or month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireBoard(); err != nil {
			return err
		}
		period, err := core.ParsePeriod(reviewPeriod)
		if err != nil {
			return err
		}
		stats := Board.Review(period)
		if reviewJSON {
			return writeJSON(cmd, stats)
		}

		out := cmd.OutOrStdout()
		renderReview(out, stats)
		if !reviewSummary {
			return nil
		}
		if Extractor == nil {
			return fmt.Errorf("extractor not initialized")
		}
		summary, err := Extractor.SummarizeReview(cmd.Context(), stats)
		if err != nil {
			return fmt.Errorf("generating review summary: %w", err)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, summary)
		return nil
	},
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	todayCmd.Flags().BoolVar(&todayJSON, "json", false, "Output the board as JSON")
	calendarCmd.Flags().BoolVar(&calendarJSON, "json", false, "Output the calendar as JSON")
	reviewCmd.Flags().StringVar(&reviewPeriod, "period", "week", "Review window: week or month")
	reviewCmd.Flags().BoolVar(&reviewSummary, "summary", false, "Ask the AI service for a written review")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Output the statistics as JSON")
	_ = reviewCmd.RegisterFlagCompletionFunc("period", completePeriods)

	rootCmd.AddCommand(todayCmd, calendarCmd, reviewCmd)
}
