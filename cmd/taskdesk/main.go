package main

import (
	"fmt"
	"log/slog"
	"os"

	app "github.com/valter-silva-au/taskdesk/internal"
	"github.com/valter-silva-au/taskdesk/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	opts, err := cli.ParseLogOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cli.NewLogger(opts, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	a, err := app.NewApp(app.ResolveBasePath(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing taskdesk: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	if cerr := a.Close(); cerr != nil {
		logger.Warn("closing app", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
