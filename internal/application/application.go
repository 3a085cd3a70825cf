package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/eugenenazirov/settingsd/internal/api"
	"github.com/eugenenazirov/settingsd/internal/config"
	"github.com/eugenenazirov/settingsd/internal/loader"
	"github.com/eugenenazirov/settingsd/internal/palette"
	"github.com/eugenenazirov/settingsd/internal/schema"
	"github.com/eugenenazirov/settingsd/internal/storage"
	"github.com/eugenenazirov/settingsd/internal/watcher"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	cfg     config.Config
	storage *storage.MemoryStorage
	loader  *loader.Loader
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	// reloadMu serializes reloads triggered by the API and the watcher.
	reloadMu sync.Mutex

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// New initializes the application with all dependencies from the provided
// configuration and loads the settings file. A missing settings file is not
// an error; the host then runs with schema defaults.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	s := schema.Browser()
	app := &App{
		cfg:     cfg,
		storage: storage.NewMemoryStorage(s),
		loader:  loader.New(s, logger.Named("loader")),
		logger:  logger,
	}

	if _, _, err := app.Reload(context.Background()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		logger.Warn("settings file not found, using defaults", zap.String("path", cfg.SettingsFile))
	}

	app.handler = api.NewHandler(app.storage, app.loader, api.WithReloader(app))
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, app.router)

	return app, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Reload loads the settings file and applies it to the store. Without
// partial apply any load error rejects the whole file and the live settings
// stay untouched; with it the valid statements are applied and the skipped
// ones are returned as issues.
func (a *App) Reload(ctx context.Context) (storage.Snapshot, []loader.Issue, error) {
	if err := ctx.Err(); err != nil {
		return storage.Snapshot{}, nil, err
	}

	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	res, loadErr := a.loader.LoadFile(a.cfg.SettingsFile)
	if res == nil {
		if errors.Is(loadErr, palette.ErrInvalidName) {
			loadErr = fmt.Errorf("%w: %w", storage.ErrInvalidSettings, loadErr)
		}
		return storage.Snapshot{}, loader.Issues(loadErr), loadErr
	}

	issues := loader.Issues(loadErr)
	if loadErr != nil && !a.cfg.PartialApply {
		a.logger.Warn("settings rejected",
			zap.String("path", a.cfg.SettingsFile),
			zap.Int("errors", len(issues)),
			zap.Error(loadErr),
		)
		return storage.Snapshot{}, issues, fmt.Errorf("%w: %w", storage.ErrInvalidSettings, loadErr)
	}

	snap, err := a.storage.Apply(res.Options, res.Bindings)
	if err != nil {
		return storage.Snapshot{}, issues, err
	}

	for _, issue := range issues {
		a.logger.Warn("skipped settings statement",
			zap.String("kind", issue.Kind),
			zap.String("path", issue.Path),
			zap.String("trigger", issue.Trigger),
			zap.Int("line", issue.Line),
			zap.String("message", issue.Message),
		)
	}
	a.logger.Info("settings applied",
		zap.String("path", a.cfg.SettingsFile),
		zap.String("revision", snap.Revision),
		zap.Int("options", len(res.Options)),
		zap.Int("bindings", len(res.Bindings)),
	)
	return snap, issues, nil
}

// Start starts the HTTP server in a goroutine and logs the listening address.
// When watching is enabled the settings file is reloaded on every change.
func (a *App) Start() error {
	if a.cfg.Watch {
		ctx, cancel := context.WithCancel(context.Background())
		w := watcher.New(a.cfg.SettingsFile, func() {
			if _, _, err := a.Reload(ctx); err != nil {
				a.logger.Error("reload after file change failed", zap.Error(err))
			}
		}, a.logger.Named("watcher"))

		a.stopWatch = cancel
		a.watchDone = make(chan struct{})
		go func() {
			defer close(a.watchDone)
			if err := w.Run(ctx); err != nil {
				a.logger.Error("settings watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop ends the settings watcher, if one is running.
func (a *App) Stop() {
	if a.stopWatch == nil {
		return
	}
	a.stopWatch()
	<-a.watchDone
	a.stopWatch = nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Settings returns the live settings.
func (a *App) Settings() storage.Snapshot {
	return a.storage.Snapshot()
}
