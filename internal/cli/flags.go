package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// LogOptions selects the slog handler and level.
type LogOptions struct {
	Format string
	Level  string
}

// DefaultLogOptions returns text output at info level.
func DefaultLogOptions() LogOptions {
	return LogOptions{Format: "text", Level: "info"}
}

func addLogFlags(fs *pflag.FlagSet, opts *LogOptions) {
	fs.StringVar(&opts.Format, "log-format", opts.Format, "Log output format: text or json")
	fs.StringVar(&opts.Level, "log-level", opts.Level, "Minimum log level: debug, info, warn, error")
}

// ParseLogOptions reads the logging flags from the raw command line. It
// runs before the command tree so services can be built with the final
// logger; every other argument is ignored.
func ParseLogOptions(args []string) (LogOptions, error) {
	opts := DefaultLogOptions()
	fs := pflag.NewFlagSet("taskdesk", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addLogFlags(fs, &opts)

	var logArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--log-format") && !strings.HasPrefix(arg, "--log-level") {
			continue
		}
		logArgs = append(logArgs, arg)
		if !strings.Contains(arg, "=") && i+1 < len(args) {
			logArgs = append(logArgs, args[i+1])
			i++
		}
	}

	if err := fs.Parse(logArgs); err != nil {
		return opts, fmt.Errorf("parsing log flags: %w", err)
	}
	return opts, nil
}

// NewLogger builds the process logger described by opts.
func NewLogger(opts LogOptions, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", opts.Level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch opts.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q, must be text or json", opts.Format)
	}
}

func addFilterFlags(fs *pflag.FlagSet, f *core.TaskFilter, status *string) {
	fs.StringVar(&f.Tag, "tag", "", "Only tasks with this tag")
	fs.StringVar(status, "status", "", "Only tasks in this status (not_started, working, paused, waiting, done)")
	fs.StringVarP(&f.Search, "search", "s", "", "Case-insensitive text to find in the task name")
	fs.StringVar(&f.From, "from", "", "Earliest registered date (YYYY-MM-DD)")
	fs.StringVar(&f.To, "to", "", "Latest registered date (YYYY-MM-DD)")
}

func addSessionFlags(fs *pflag.FlagSet, in *core.SessionInput) {
	fs.StringVar(&in.Date, "date", "", "Date of the session (YYYY-MM-DD, default today)")
	fs.StringVar(&in.Start, "start", "", "Start time (HH:MM)")
	fs.StringVar(&in.End, "end", "", "End time (HH:MM)")
}

func addDraftFlags(fs *pflag.FlagSet, tag, memo *string, estimate *int) {
	fs.StringVarP(tag, "tag", "t", "", "Tag to file the task under")
	fs.StringVarP(memo, "memo", "m", "", "Free-form notes")
	fs.IntVarP(estimate, "estimate", "e", 0, "Estimated minutes")
}

// parseStatus validates an optional status flag.
func parseStatus(s string) (models.TaskStatus, error) {
	status := models.TaskStatus(s)
	if s != "" && !status.Valid() {
		return "", fmt.Errorf("invalid status %q, must be one of: not_started, working, paused, waiting, done", s)
	}
	return status, nil
}

// parseDirection maps "up"/"down" (or "-1"/"1") to a move direction.
func parseDirection(s string) (int, error) {
	switch strings.ToLower(s) {
	case "up", "left", "-1":
		return -1, nil
	case "down", "right", "1", "+1":
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid direction %q, must be up or down", s)
	}
}
