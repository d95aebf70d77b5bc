package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath  string
	Board     core.TaskManager
	Extractor core.TaskExtractor
	Clock     clock.Clock = clock.Real()
	Logger    *slog.Logger

	// FlushBoard writes pending board changes. It runs after every command.
	FlushBoard func(ctx context.Context) error

	// Serve runs the HTTP API until ctx is cancelled.
	Serve      func(ctx context.Context, addr string) error
	ServerAddr string

	TickInterval = time.Second
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
