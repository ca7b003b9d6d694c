// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks the merged configuration. All problems are reported at once.
func Validate(cfg AppConfig) error {
	var errs []error

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %q is not a valid level", cfg.LogLevel))
	}
	if cfg.Cache.MaxConnections <= 0 {
		errs = append(errs, fmt.Errorf("cache.maxConnections: must be positive, got %d", cfg.Cache.MaxConnections))
	}
	if cfg.Cache.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("cache.idleTimeout: must not be negative"))
	}
	if cfg.Cache.ReapInterval < 0 {
		errs = append(errs, fmt.Errorf("cache.reapInterval: must not be negative"))
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, fmt.Errorf("sqlite.busyTimeout: must not be negative"))
	}
	if cfg.SQLite.QueryTimeout < 0 {
		errs = append(errs, fmt.Errorf("sqlite.queryTimeout: must not be negative"))
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			errs = append(errs, fmt.Errorf("telemetry.exporter: unsupported exporter %q (want grpc or http)", cfg.Telemetry.Exporter))
		}
		if cfg.Telemetry.Endpoint == "" {
			errs = append(errs, fmt.Errorf("telemetry.endpoint: required when telemetry is enabled"))
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.samplingRate: must be within [0,1], got %v", cfg.Telemetry.SamplingRate))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
