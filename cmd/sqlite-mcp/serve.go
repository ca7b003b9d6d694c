// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/sqlite-mcp/internal/config"
	"github.com/ManuGH/sqlite-mcp/internal/daemon"
	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/health"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/mcpserver"
	"github.com/ManuGH/sqlite-mcp/internal/persistence/sqlite"
	"github.com/ManuGH/sqlite-mcp/internal/telemetry"
	"github.com/ManuGH/sqlite-mcp/internal/tools"
)

func newServeCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over stdio",
		Long: "Serve the SQLite tools as an MCP server on stdin/stdout. Logs go to stderr. " +
			"When metrics.listenAddr is set, /metrics, /healthz and /readyz are served on that address.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, st)
		},
	}
}

func managerOptions(cfg config.AppConfig) database.Options {
	return database.Options{
		MaxConnections: cfg.Cache.MaxConnections,
		IdleTimeout:    cfg.Cache.IdleTimeout,
		ReapInterval:   cfg.Cache.ReapInterval,
		QueryTimeout:   cfg.SQLite.QueryTimeout,
		SQLite: sqlite.Config{
			BusyTimeout:  cfg.SQLite.BusyTimeout,
			MaxOpenConns: 1,
			ForeignKeys:  true,
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, st *cliState) error {
	cfg := st.cfg
	logger := xglog.WithComponent("serve")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	dbm := database.NewManager(managerOptions(cfg))
	dispatcher, err := tools.NewDispatcher(dbm)
	if err != nil {
		_ = dbm.Close()
		return err
	}
	srv := mcpserver.New(dispatcher, cfg.Version)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewCacheChecker(dbm))

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	mgr, err := daemon.NewManager(daemon.Deps{
		Logger: xglog.WithComponent("daemon"),
		Transport: daemon.TransportFunc(func(ctx context.Context) error {
			return srv.ServeStdio(ctx, in, out)
		}),
		HTTPAddr:    cfg.Metrics.ListenAddr,
		HTTPHandler: daemon.NewRouter(hm),
	})
	if err != nil {
		_ = dbm.Close()
		return err
	}
	hm.RegisterChecker(health.NewTransportChecker(mgr.Serving))

	// LIFO: handles close before the tracer flushes.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("database", func(context.Context) error { return dbm.Close() })

	var holder *config.ConfigHolder
	if st.loader.ConfigPath() != "" {
		holder = config.NewConfigHolder(cfg, st.loader)
	}

	logger.Info().
		Str(xglog.FieldEvent, "serve.start").
		Int("max_connections", cfg.Cache.MaxConnections).
		Dur("idle_timeout", cfg.Cache.IdleTimeout).
		Str("metrics_addr", cfg.Metrics.ListenAddr).
		Msg("starting sqlite-mcp")

	app := daemon.NewApp(logger, mgr, holder, dbm)
	return app.Run(ctx)
}
