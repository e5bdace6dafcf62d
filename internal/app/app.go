// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/analytics"
	"github.com/vitran/ecfr-analyzer/internal/checksum"
	"github.com/vitran/ecfr-analyzer/internal/clock/system"
	"github.com/vitran/ecfr-analyzer/internal/config"
	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/enricher"
	"github.com/vitran/ecfr-analyzer/internal/hash/sha256"
	"github.com/vitran/ecfr-analyzer/internal/logging"
	"github.com/vitran/ecfr-analyzer/internal/pipeline"
	"github.com/vitran/ecfr-analyzer/internal/ratelimit"
	"github.com/vitran/ecfr-analyzer/internal/storage"
	"github.com/vitran/ecfr-analyzer/internal/storage/local"
	"github.com/vitran/ecfr-analyzer/internal/storage/memory"
	"github.com/vitran/ecfr-analyzer/internal/storage/postgres"
)

// App holds the shared, long-lived services for the analyzer. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     storage.Store
	Analytics *analytics.Service
	Pipeline  *pipeline.Service

	closers []func()
}

// New wires every service from the given configuration. It fails fast
// if any critical dependency cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	clock := system.New()
	cks := checksum.New(sha256.New())

	store, closeStore, err := buildStore(ctx, cfg, clock, logger)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.RequestDelay())
	retry := ecfr.NewRetryPolicy(cfg.ECFR.MaxRetryAttempts, time.Second, 10*time.Second)
	client := ecfr.NewHTTPClient(ecfr.ClientConfig{
		BaseURL:   cfg.ECFR.BaseURL,
		UserAgent: cfg.ECFR.UserAgent,
		Timeout:   cfg.Timeout(),
	}, retry, limiter, logger)

	enr := enricher.New(client, cks, clock, enricher.Config{
		MaxTitlesPerRun: cfg.Pipeline.MaxTitlesPerRun,
		FallbackDate:    cfg.Pipeline.FallbackDate,
	}, logger)

	an := analytics.New(cks, clock, analytics.Config{
		RecentCutoff: cfg.Analytics.RecentCutoff,
	}, logger)

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Analytics: an,
		Pipeline:  pipeline.New(client, enr, an, store, clock, logger),
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	return a, nil
}

func buildStore(ctx context.Context, cfg config.Config, clock ecfr.Clock, logger *zap.Logger) (storage.Store, func(), error) {
	switch cfg.Storage.Provider {
	case "local":
		st, err := local.New(local.Config{DataDir: cfg.Storage.DataDir}, clock, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init local store: %w", err)
		}
		return st, nil, nil
	case "postgres":
		st, err := postgres.Connect(ctx, cfg.DB.DSN, clock, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres store: %w", err)
		}
		return st, st.Close, nil
	case "memory":
		return memory.New(clock), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}

// Close shuts down the container's services and flushes the logger.
func (a *App) Close() {
	for _, close := range a.closers {
		close()
	}
	_ = a.Logger.Sync()
}
