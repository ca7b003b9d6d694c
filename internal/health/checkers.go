// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/sqlite-mcp/internal/database"
)

// CacheSource is the part of the connection cache the checker needs.
// *database.Manager satisfies it.
type CacheSource interface {
	Stats() database.Stats
	Ping(ctx context.Context) error
}

// CacheChecker reports on the connection cache: unhealthy when any cached
// handle fails a ping, degraded when the cache is full.
type CacheChecker struct {
	cache   CacheSource
	timeout time.Duration
}

// NewCacheChecker creates a checker for the connection cache.
func NewCacheChecker(cache CacheSource) *CacheChecker {
	return &CacheChecker{cache: cache, timeout: 2 * time.Second}
}

func (c *CacheChecker) Name() string {
	return "connection_cache"
}

func (c *CacheChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stats := c.cache.Stats()
	details := map[string]any{
		"open":      stats.Open,
		"max":       stats.Max,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
	}

	if err := c.cache.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Details: details}
	}
	if stats.Max > 0 && stats.Open >= stats.Max {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("cache full (%d/%d handles); further opens evict", stats.Open, stats.Max),
			Details: details,
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d/%d handles open", stats.Open, stats.Max),
		Details: details,
	}
}

// TransportChecker reports whether the protocol loop is still serving.
type TransportChecker struct {
	running func() bool
}

// NewTransportChecker creates a checker backed by running.
func NewTransportChecker(running func() bool) *TransportChecker {
	return &TransportChecker{running: running}
}

func (c *TransportChecker) Name() string {
	return "transport"
}

func (c *TransportChecker) Check(context.Context) CheckResult {
	if c.running() {
		return CheckResult{Status: StatusHealthy, Message: "serving"}
	}
	return CheckResult{Status: StatusUnhealthy, Message: "transport stopped"}
}
