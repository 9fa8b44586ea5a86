package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/recapture/internal/api"
	"github.com/kalambet/recapture/internal/config"
	"github.com/kalambet/recapture/internal/dashboard"
	"github.com/kalambet/recapture/internal/locale"
	"github.com/kalambet/recapture/internal/metrics"
	"github.com/kalambet/recapture/internal/storage"
	"github.com/kalambet/recapture/internal/viewmodel"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

// app bundles what a command needs: config, API client and screens.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	client *api.Client
	dash   *dashboard.Dashboard
}

// newApp loads config and builds the client and dashboard. Commands log
// only at debug level; server commands pass serverMode to log at the
// configured level.
func newApp(serverMode bool) (*app, error) {
	return buildApp(serverMode, nil)
}

// newServerApp is newApp for long-running commands, reporting requests,
// actions and stale responses to collector.
func newServerApp(collector *metrics.Collector) (*app, error) {
	return buildApp(true, collector)
}

func buildApp(serverMode bool, collector *metrics.Collector) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log.Level, serverMode)
	if serverMode {
		slog.SetDefault(logger)
	}

	clientOpts := []api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithRateLimit(cfg.API.MaxRPS),
		api.WithLogger(logger),
	}
	dashCfg := dashboard.Config{
		FeedMode:     viewmodel.FeedMode(cfg.Feed.Mode),
		FeedPageSize: cfg.Feed.PageSize,
		FeedPoll:     cfg.Feed.PollInterval,
		LogsPoll:     cfg.Logs.PollInterval,
		Logger:       logger,
	}
	if collector != nil {
		clientOpts = append(clientOpts, api.WithObserver(collector))
		dashCfg.Observer = collector
	}
	if !serverMode {
		dashCfg.Notifier = viewmodel.NotifierFunc(printNotice)
	}

	client := api.New(cfg.API.BaseURL, clientOpts...)
	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		dash:   dashboard.New(client, dashCfg),
	}, nil
}

func (a *app) Close() {
	a.dash.Close()
}

// initLocale opens the preference store and loads the persisted language.
// The returned store must be closed by the caller.
func (a *app) initLocale() (*storage.Store, error) {
	store, err := storage.Open(a.cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	if err := locale.Init(store); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newLogger(level string, serverMode bool) *slog.Logger {
	debug := strings.EqualFold(level, "debug")
	if !serverMode && !debug {
		return slog.New(slog.DiscardHandler)
	}
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
