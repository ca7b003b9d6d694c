// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/sqlite-mcp/internal/config"
)

// CacheTuner receives cache limits after a config reload.
// *database.Manager satisfies it.
type CacheTuner interface {
	SetLimits(maxConnections int, idleTimeout time.Duration)
}

// App owns the long-lived runtime around Manager: config watching, SIGHUP
// reloads and applying reloaded cache limits.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	cache        CacheTuner
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and cache may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, cache CacheTuner) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		cache:        cache,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run blocks until the manager stops.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	// Background helpers stop with the manager, not only with ctx.
	helpersCtx, stopHelpers := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(helpersCtx)

	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(gctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		if a.cache != nil {
			applyCh := make(chan config.AppConfig, 1)
			a.cfgHolder.RegisterListener(applyCh)
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case cfg := <-applyCh:
						a.cache.SetLimits(cfg.Cache.MaxConnections, cfg.Cache.IdleTimeout)
					}
				}
			})
		}

		if a.reloadSignal != nil {
			g.Go(func() error {
				hupChan := make(chan os.Signal, 1)
				signal.Notify(hupChan, a.reloadSignal)
				defer signal.Stop(hupChan)
				for {
					select {
					case <-gctx.Done():
						return nil
					case <-hupChan:
						a.logger.Info().
							Str("event", "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal, reloading config")
						if err := a.cfgHolder.Reload(gctx); err != nil {
							a.logger.Warn().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
						}
					}
				}
			})
		}
	}

	err := a.manager.Start(ctx)
	stopHelpers()
	_ = g.Wait()
	if a.cfgHolder != nil {
		a.cfgHolder.Stop()
	}
	return err
}
