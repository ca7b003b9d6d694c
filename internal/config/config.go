// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Defaults for the connection cache and the SQLite driver.
const (
	DefaultMaxConnections = 50
	DefaultIdleTimeout    = 30 * time.Minute
	DefaultBusyTimeout    = 5 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogService     = "sqlite-mcp"
	DefaultOTelExporter   = "grpc"
	DefaultOTelEndpoint   = "localhost:4317"
)

// AppConfig is the effective runtime configuration after merging defaults,
// the optional YAML file and the environment.
type AppConfig struct {
	Version    string
	LogLevel   string
	LogService string

	Cache     CacheConfig
	SQLite    SQLiteConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// CacheConfig bounds the per-path connection cache.
type CacheConfig struct {
	MaxConnections int
	IdleTimeout    time.Duration
	// ReapInterval enables a background sweep of idle handles. Zero disables it,
	// in which case idle handles are only evicted when the cache is full.
	ReapInterval time.Duration
}

// SQLiteConfig holds driver level settings applied to every opened handle.
type SQLiteConfig struct {
	BusyTimeout time.Duration
	// QueryTimeout bounds a single statement. Zero means no deadline.
	QueryTimeout time.Duration
}

// MetricsConfig controls the optional Prometheus / health listener.
type MetricsConfig struct {
	ListenAddr string
}

// Enabled reports whether the metrics listener should be started.
func (m MetricsConfig) Enabled() bool {
	return m.ListenAddr != ""
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
	Environment  string
}

// FileConfig is the YAML representation. Pointer fields distinguish "unset"
// from zero values so the file only overrides what it names.
type FileConfig struct {
	LogLevel   string               `yaml:"logLevel,omitempty"`
	LogService string               `yaml:"logService,omitempty"`
	Cache      *FileCacheConfig     `yaml:"cache,omitempty"`
	SQLite     *FileSQLiteConfig    `yaml:"sqlite,omitempty"`
	Metrics    *FileMetricsConfig   `yaml:"metrics,omitempty"`
	Telemetry  *FileTelemetryConfig `yaml:"telemetry,omitempty"`
}

type FileCacheConfig struct {
	MaxConnections *int           `yaml:"maxConnections,omitempty"`
	IdleTimeout    *time.Duration `yaml:"idleTimeout,omitempty"`
	ReapInterval   *time.Duration `yaml:"reapInterval,omitempty"`
}

type FileSQLiteConfig struct {
	BusyTimeout  *time.Duration `yaml:"busyTimeout,omitempty"`
	QueryTimeout *time.Duration `yaml:"queryTimeout,omitempty"`
}

type FileMetricsConfig struct {
	ListenAddr *string `yaml:"listenAddr,omitempty"`
}

type FileTelemetryConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     *string  `yaml:"exporter,omitempty"`
	Endpoint     *string  `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
	Environment  *string  `yaml:"environment,omitempty"`
}

// Defaults returns the configuration used when neither file nor environment
// override anything.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   DefaultLogLevel,
		LogService: DefaultLogService,
		Cache: CacheConfig{
			MaxConnections: DefaultMaxConnections,
			IdleTimeout:    DefaultIdleTimeout,
		},
		SQLite: SQLiteConfig{
			BusyTimeout: DefaultBusyTimeout,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultOTelExporter,
			Endpoint:     DefaultOTelEndpoint,
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
