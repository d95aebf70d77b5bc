package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// logOptions mirrors the flags read early by ParseLogOptions so they show
// up in help output and are accepted by every command.
var logOptions = DefaultLogOptions()

var rootCmd = &cobra.Command{
	Use:   "taskdesk",
	Short: "taskdesk - task time tracking with a today board",
	Long: `taskdesk tracks time spent on tasks. Start, pause, wait on and complete
tasks on a today board grouped by tag, edit recorded work sessions, review
the week or month, and turn free text into tasks.

Without "serve" every command works offline against a single workspace
file. "serve" runs the multi-user HTTP API with one-time-code login.`,
	SilenceUsage: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if FlushBoard == nil {
			return nil
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := FlushBoard(ctx); err != nil {
			return fmt.Errorf("saving workspace: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taskdesk %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	addLogFlags(rootCmd.PersistentFlags(), &logOptions)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
