package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/taskdesk/internal/cli"
	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/internal/core"
	"github.com/valter-silva-au/taskdesk/internal/integration"
	"github.com/valter-silva-au/taskdesk/internal/observability"
	"github.com/valter-silva-au/taskdesk/internal/storage"
	"github.com/valter-silva-au/taskdesk/internal/web"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// OfflineAccount is the account name used for the single local workspace.
const OfflineAccount = "local"

// EventLogFile is the name of the JSONL event log under the base path.
const EventLogFile = ".taskdesk_events.jsonl"

const purgeInterval = 10 * time.Minute

// App holds all service instances and wires them together.
type App struct {
	BasePath string
	Config   *models.GlobalConfig
	Logger   *slog.Logger
	Clock    clock.Clock

	KV        storage.KeyValueStore
	Boards    *core.BoardRegistry
	Auth      core.AuthService
	Extractor core.TaskExtractor

	FileStore  *storage.FileWorkspaceStore
	LocalSaver *storage.DebouncedSaver
	Board      core.TaskManager

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
}

// NewApp loads the configuration under basePath and wires every service
// and the CLI package variables.
func NewApp(basePath string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		BasePath: basePath,
		Logger:   logger,
		Clock:    clock.Real(),
	}

	cfgMgr := core.NewConfigurationManager(basePath)
	cfg, err := cfgMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfgMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability (non-fatal) ---
	eventLog, err := observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFile), app.Clock)
	if err != nil {
		logger.Warn("event log unavailable", "error", err)
	} else {
		app.EventLog = eventLog
		app.MetricsCalc = observability.NewMetricsCalculator(eventLog)
	}
	app.AlertEngine = observability.NewAlertEngine(observability.ThresholdsFromConfig(cfg.Alerts))
	if cfg.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Slack.WebhookURL)
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = app.EventLog
	}

	// --- AI ---
	var completer core.Completer
	if cfg.AI.Enabled {
		if key := os.Getenv(cfg.AI.APIKeyEnv); key != "" {
			completer = integration.NewAnthropicClient(key, cfg.AI)
		} else {
			logger.Warn("ai enabled but api key is not set", "env", cfg.AI.APIKeyEnv)
		}
	}
	app.Extractor = core.NewTaskExtractor(completer, logger, events)

	// --- Key-value store and server-side boards ---
	kv, err := openKV(basePath, cfg, app.Clock)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.KV = kv

	wsStore := &seedingStore{
		WorkspaceStore: storage.NewKVWorkspaceStore(kv, app.Clock),
		tags:           cfg.DefaultTags,
	}
	app.Boards = core.NewBoardRegistry(wsStore, func(account string) core.WorkspaceSaver {
		return storage.NewDebouncedSaver(wsStore, account, cfg.SaveDebounce, app.Clock, logger)
	}, app.Clock, events, logger)

	app.Auth = core.NewAuthService(kv, newMailer(cfg.Mail, logger), app.Clock, cfg.Auth, logger)

	// --- Offline board ---
	app.FileStore = storage.NewFileWorkspaceStore(resolvePath(basePath, cfg.WorkspaceFile), app.Clock)
	local := &seedingStore{WorkspaceStore: app.FileStore, tags: cfg.DefaultTags}
	ws, err := local.Load(context.Background(), OfflineAccount)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.LocalSaver = storage.NewDebouncedSaver(app.FileStore, OfflineAccount, cfg.SaveDebounce, app.Clock, logger)
	app.Board = core.NewTaskManager(ws, app.Clock, app.LocalSaver, events, logger)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Board = app.Board
	cli.Extractor = app.Extractor
	cli.Clock = app.Clock
	cli.Logger = logger
	cli.FlushBoard = app.LocalSaver.Flush
	cli.Serve = app.Serve
	cli.ServerAddr = cfg.ServerAddr
	cli.TickInterval = cfg.TickInterval

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Serve runs the HTTP API on addr until ctx is cancelled, then drains
// in-flight requests and flushes every board.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := web.NewServer(web.Deps{
		Auth:      a.Auth,
		Boards:    a.Boards,
		Extractor: a.Extractor,
		Logger:    a.Logger,
	}).HTTPServer(addr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	a.Logger.Info("server started", "addr", addr)

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ticker.C:
			if n, err := storage.PurgeExpired(ctx, a.KV); err != nil {
				a.Logger.Warn("purging expired keys", "error", err)
			} else if n > 0 {
				a.Logger.Debug("purged expired keys", "count", n)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Warn("shutting down server", "error", err)
			}
			if err := a.Boards.Flush(shutdownCtx); err != nil {
				return fmt.Errorf("flushing boards: %w", err)
			}
			a.Logger.Info("server stopped")
			return nil
		}
	}
}

// Close releases the key-value store and the event log file handle. It
// is safe to call on a partially initialised App.
func (a *App) Close() error {
	var errs []error
	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the taskdesk data directory. It checks the
// TASKDESK_HOME env var, then walks up from the working directory looking
// for .taskdesk.yaml, then falls back to the working directory.
func ResolveBasePath() string {
	if home := os.Getenv("TASKDESK_HOME"); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

func openKV(basePath string, cfg *models.GlobalConfig, clk clock.Clock) (storage.KeyValueStore, error) {
	if cfg.StoreDriver == "memory" {
		return storage.NewMemoryKV(clk), nil
	}
	path := cfg.StorePath
	if path != ":memory:" {
		path = resolvePath(basePath, path)
	}
	kv, err := storage.NewSQLiteKV(path, clk)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return kv, nil
}

func newMailer(cfg models.MailConfig, logger *slog.Logger) core.Mailer {
	if cfg.Endpoint == "" {
		return integration.NewLogMailer(logger)
	}
	return integration.NewHTTPMailer(cfg.Endpoint, os.Getenv(cfg.APIKeyEnv), cfg.From)
}

func resolvePath(basePath, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}

// seedingStore fills a brand-new workspace with the configured default
// tags on load.
type seedingStore struct {
	core.WorkspaceStore
	tags []string
}

func (s *seedingStore) Load(ctx context.Context, account string) (models.Workspace, error) {
	ws, err := s.WorkspaceStore.Load(ctx, account)
	if err != nil {
		return ws, err
	}
	if len(ws.Tags) > 0 || len(ws.Tasks) > 0 || len(ws.RoutineTasks) > 0 {
		return ws, nil
	}
	for _, tag := range s.tags {
		ws, _ = core.AddTag(ws, tag)
	}
	return ws, nil
}
