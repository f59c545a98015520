// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sonata-music/sonata/internal/adapter/audio/mock"
	"github.com/sonata-music/sonata/internal/adapter/eventbus"
	"github.com/sonata-music/sonata/internal/adapter/store/sqlite"
	"github.com/sonata-music/sonata/internal/config"
	"github.com/sonata-music/sonata/internal/logger"
	"github.com/sonata-music/sonata/internal/ports"
	"github.com/sonata-music/sonata/internal/service"
)

// Application is the root structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based
// injection: the store is opened exactly once here and every component
// receives what it needs through its constructor.
type Application struct {
	// Core dependencies
	cfg    config.Config
	logger *slog.Logger

	// Infrastructure
	eventBus ports.EventBus
	store    ports.Store
	output   ports.AudioOutput

	// Services
	Library *service.LibraryService
	Ingest  *service.IngestService
	Player  *service.PlayerService
	Stats   *service.StatsService

	shutdownOnce sync.Once
}

// Options tune application construction.
type Options struct {
	// ConfigPath is the TOML configuration file; empty means defaults.
	ConfigPath string

	// Output overrides the audio output adapter (nil selects the mock,
	// which is also the production default until a native output exists).
	Output ports.AudioOutput
}

// New creates the application with all dependencies wired and the library
// loaded. A store that cannot be opened is fatal: no component works
// without it.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}

	app := &Application{cfg: cfg}

	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	})
	app.logger.Info("initializing",
		slog.String("database", cfg.Storage.DatabasePath))

	app.eventBus = eventbus.NewSyncEventBus(
		app.logger.With(slog.String("component", "eventbus")))

	store, err := sqlite.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.store = store

	app.output = opts.Output
	if app.output == nil {
		app.output = mock.NewOutput()
	}

	app.Library = service.NewLibraryService(
		app.logger.With(slog.String("component", "library")),
		app.store, app.eventBus, cfg.Library.SortLocale)
	if err := app.Library.Load(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load library: %w", err)
	}

	app.Ingest = service.NewIngestService(
		app.logger.With(slog.String("component", "ingest")), app.Library)
	app.Player = service.NewPlayerService(
		app.logger.With(slog.String("component", "player")),
		app.Library, app.eventBus, app.output)
	app.Stats = service.NewStatsService(
		app.logger.With(slog.String("component", "stats")),
		app.Library, app.eventBus, cfg.Stats.TopN)

	app.logger.Info("ready",
		slog.Int("songs", app.Library.SongCount()),
		slog.Int("playlists", len(app.Library.Playlists())))

	return app, nil
}

// Logger returns the application root logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Shutdown releases resources in reverse construction order. Safe to call
// more than once.
func (a *Application) Shutdown() error {
	var errs []error
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down")

		a.Stats.Close()
		if err := a.Player.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
