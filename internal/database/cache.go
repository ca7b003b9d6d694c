// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package database owns the per-file connection cache and runs statements and
// transactions against the cached handles.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/sqlite-mcp/internal/core/pathutil"
	"github.com/ManuGH/sqlite-mcp/internal/errclass"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/metrics"
	"github.com/ManuGH/sqlite-mcp/internal/persistence/sqlite"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Defaults mirrored from the configuration package.
const (
	DefaultMaxConnections = 50
	DefaultIdleTimeout    = 30 * time.Minute
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("database: manager closed")

// Options configures a Manager.
type Options struct {
	MaxConnections int
	IdleTimeout    time.Duration
	// ReapInterval > 0 starts a background sweep that closes idle handles.
	ReapInterval time.Duration
	// QueryTimeout > 0 bounds every statement and transaction.
	QueryTimeout time.Duration
	SQLite       sqlite.Config

	// Now overrides the clock; used by tests.
	Now func() time.Time
	// Open overrides the driver open; used by tests.
	Open func(ctx context.Context, path string, cfg sqlite.Config) (*sql.DB, error)
}

func (o Options) withDefaults() Options {
	if o.MaxConnections <= 0 {
		o.MaxConnections = DefaultMaxConnections
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.SQLite == (sqlite.Config{}) {
		o.SQLite = sqlite.DefaultConfig()
	}
	// Cached handles always use a single connection.
	o.SQLite.MaxOpenConns = 1
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Open == nil {
		o.Open = sqlite.Open
	}
	return o
}

// Entry is one cached handle. The Manager owns DB; callers must not close it.
type Entry struct {
	Path string
	DB   *sql.DB

	lastAccessed time.Time // guarded by Manager.mu
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Open      int      `json:"open"`
	Max       int      `json:"max"`
	Hits      int64    `json:"hits"`
	Misses    int64    `json:"misses"`
	Evictions int64    `json:"evictions"`
	Paths     []string `json:"paths"`
}

// Manager caches one handle per canonical database path.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool
	hits    int64
	misses  int64
	evicted int64

	opening singleflight.Group

	stopReaper chan struct{}
	reaperDone chan struct{}
	closeOnce  sync.Once
}

// NewManager creates a Manager and starts the reaper when configured.
func NewManager(opts Options) *Manager {
	m := &Manager{
		opts:    opts.withDefaults(),
		logger:  xglog.WithComponent("database"),
		entries: make(map[string]*Entry),
	}
	if m.opts.ReapInterval > 0 {
		m.stopReaper = make(chan struct{})
		m.reaperDone = make(chan struct{})
		go m.reapLoop()
	}
	return m
}

// Acquire returns the cached handle for rawPath, opening it on first use.
// Concurrent callers for the same path share one open; the returned Entry is
// the same pointer for every call until the handle is evicted or released.
func (m *Manager) Acquire(ctx context.Context, rawPath string) (*Entry, error) {
	canonical, err := pathutil.ResolveDatabasePath(rawPath)
	if err != nil {
		metrics.RecordCacheLookup(metrics.LookupError)
		return nil, errclass.NewDatabaseError(errclass.InvalidPath, rawPath, err)
	}

	if e, ok, err := m.lookup(canonical); err != nil || ok {
		return e, err
	}

	// The open is shared, so it must not inherit one caller's cancellation.
	// Each caller still stops waiting when its own ctx ends.
	ch := m.opening.DoChan(canonical, func() (any, error) {
		// Another caller may have finished opening while we waited.
		if e, ok, err := m.lookup(canonical); err != nil || ok {
			return e, err
		}
		return m.open(context.WithoutCancel(ctx), canonical)
	})
	select {
	case <-ctx.Done():
		metrics.RecordCacheLookup(metrics.LookupError)
		return nil, errclass.NewDatabaseError(errclass.ConnectionFailed, canonical, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			metrics.RecordCacheLookup(metrics.LookupError)
			return nil, r.Err
		}
		return r.Val.(*Entry), nil
	}
}

func (m *Manager) lookup(canonical string) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	e, ok := m.entries[canonical]
	if !ok {
		return nil, false, nil
	}
	e.lastAccessed = m.opts.Now()
	m.hits++
	metrics.RecordCacheLookup(metrics.LookupHit)
	return e, true, nil
}

func (m *Manager) open(ctx context.Context, canonical string) (*Entry, error) {
	start := time.Now()

	// Make room before opening so the ceiling holds even while the open runs.
	m.mu.Lock()
	victims := m.evictLocked()
	m.mu.Unlock()
	m.closeEntries(victims)

	if err := os.MkdirAll(filepath.Dir(canonical), 0o750); err != nil {
		return nil, errclass.ClassifyDatabase(fmt.Errorf("create parent directory: %w", err), canonical)
	}

	db, err := m.opts.Open(ctx, canonical, m.opts.SQLite)
	if err != nil {
		return nil, errclass.ClassifyDatabase(err, canonical)
	}

	entry := &Entry{Path: canonical, DB: db}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = db.Close()
		return nil, ErrClosed
	}
	// Concurrent opens of other paths may have filled the cache meanwhile.
	victims = m.evictLocked()
	entry.lastAccessed = m.opts.Now()
	m.entries[canonical] = entry
	m.misses++
	open := len(m.entries)
	m.mu.Unlock()
	m.closeEntries(victims)

	metrics.RecordCacheLookup(metrics.LookupMiss)
	metrics.ObserveOpen(time.Since(start).Seconds())
	metrics.SetOpenConnections(open)
	m.logger.Debug().
		Str(xglog.FieldEvent, "cache.open").
		Str(xglog.FieldPath, canonical).
		Int(xglog.FieldConnections, open).
		Dur(xglog.FieldDuration, time.Since(start)).
		Msg("opened database handle")

	return entry, nil
}

type victim struct {
	entry  *Entry
	reason string
}

// evictLocked makes room for one more entry when the cache is full: first
// every idle entry goes, then, if still full, the least recently used one.
// Handles are closed by the caller after m.mu is released.
func (m *Manager) evictLocked() []victim {
	if len(m.entries) < m.opts.MaxConnections {
		return nil
	}

	now := m.opts.Now()
	var out []victim
	for p, e := range m.entries {
		if now.Sub(e.lastAccessed) > m.opts.IdleTimeout {
			delete(m.entries, p)
			out = append(out, victim{entry: e, reason: metrics.EvictIdle})
		}
	}

	if len(m.entries) >= m.opts.MaxConnections {
		var oldest *Entry
		for _, e := range m.entries {
			if oldest == nil || e.lastAccessed.Before(oldest.lastAccessed) {
				oldest = e
			}
		}
		if oldest != nil {
			delete(m.entries, oldest.Path)
			out = append(out, victim{entry: oldest, reason: metrics.EvictCapacity})
		}
	}
	m.evicted += int64(len(out))
	return out
}

func (m *Manager) closeEntries(victims []victim) {
	if len(victims) == 0 {
		return
	}
	for _, v := range victims {
		if err := v.entry.DB.Close(); err != nil {
			m.logger.Warn().Err(err).Str(xglog.FieldPath, v.entry.Path).Msg("closing evicted handle failed")
		}
		metrics.RecordEviction(v.reason)
		m.logger.Debug().
			Str(xglog.FieldEvent, "cache.evict").
			Str(xglog.FieldReason, v.reason).
			Str(xglog.FieldPath, v.entry.Path).
			Msg("closed database handle")
	}
	metrics.SetOpenConnections(m.Len())
}

// SetLimits changes the capacity and idle timeout at runtime. Non-positive
// values keep the current setting. When the new capacity is below the number
// of open handles, the least recently used ones are closed.
func (m *Manager) SetLimits(maxConnections int, idleTimeout time.Duration) {
	m.mu.Lock()
	if maxConnections > 0 {
		m.opts.MaxConnections = maxConnections
	}
	if idleTimeout > 0 {
		m.opts.IdleTimeout = idleTimeout
	}
	var victims []victim
	for len(m.entries) > m.opts.MaxConnections {
		var oldest *Entry
		for _, e := range m.entries {
			if oldest == nil || e.lastAccessed.Before(oldest.lastAccessed) {
				oldest = e
			}
		}
		delete(m.entries, oldest.Path)
		victims = append(victims, victim{entry: oldest, reason: metrics.EvictCapacity})
	}
	m.evicted += int64(len(victims))
	limit, idle := m.opts.MaxConnections, m.opts.IdleTimeout
	m.mu.Unlock()

	m.closeEntries(victims)
	m.logger.Info().
		Str(xglog.FieldEvent, "cache.limits").
		Int("max_connections", limit).
		Dur("idle_timeout", idle).
		Msg("connection cache limits updated")
}

// Release closes and forgets the handle for rawPath. Unknown paths are a no-op.
func (m *Manager) Release(rawPath string) error {
	canonical, err := pathutil.ResolveDatabasePath(rawPath)
	if err != nil {
		return errclass.NewDatabaseError(errclass.InvalidPath, rawPath, err)
	}

	m.mu.Lock()
	e, ok := m.entries[canonical]
	if ok {
		delete(m.entries, canonical)
	}
	open := len(m.entries)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	metrics.RecordEviction(metrics.EvictRelease)
	metrics.SetOpenConnections(open)
	m.logger.Debug().
		Str(xglog.FieldEvent, "cache.close").
		Str(xglog.FieldPath, canonical).
		Msg("released database handle")
	if err := e.DB.Close(); err != nil {
		return fmt.Errorf("close %s: %w", canonical, err)
	}
	return nil
}

// ReleaseAll closes every cached handle. The manager stays usable.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*Entry)
	m.mu.Unlock()

	var errs []error
	for p, e := range entries {
		if err := e.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", p, err))
		}
		metrics.RecordEviction(metrics.EvictShutdown)
	}
	metrics.SetOpenConnections(0)
	if len(entries) > 0 {
		m.logger.Info().
			Str(xglog.FieldEvent, "cache.close").
			Int(xglog.FieldConnections, len(entries)).
			Msg("closed all database handles")
	}
	return errors.Join(errs...)
}

// Reap closes every handle idle for longer than the idle timeout and returns
// how many were closed.
func (m *Manager) Reap() int {
	now := m.opts.Now()
	m.mu.Lock()
	var victims []victim
	for p, e := range m.entries {
		if now.Sub(e.lastAccessed) > m.opts.IdleTimeout {
			delete(m.entries, p)
			victims = append(victims, victim{entry: e, reason: metrics.EvictIdle})
		}
	}
	m.evicted += int64(len(victims))
	m.mu.Unlock()

	m.closeEntries(victims)
	return len(victims)
}

func (m *Manager) reapLoop() {
	defer close(m.reaperDone)
	ticker := time.NewTicker(m.opts.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopReaper:
			return
		case <-ticker.C:
			if n := m.Reap(); n > 0 {
				m.logger.Debug().Int("closed", n).Msg("reaped idle handles")
			}
		}
	}
}

// Close stops the reaper and releases every handle. Further Acquire calls
// fail with ErrClosed.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		if m.stopReaper != nil {
			close(m.stopReaper)
			<-m.reaperDone
		}
		err = m.ReleaseAll()
	})
	return err
}

// Len returns the number of cached handles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns a snapshot of the cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return Stats{
		Open:      len(m.entries),
		Max:       m.opts.MaxConnections,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evicted,
		Paths:     paths,
	}
}

// Ping checks every cached handle. Used by readiness checks.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}
	var errs []error
	for _, e := range entries {
		if err := e.DB.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Path, err))
		}
	}
	return errors.Join(errs...)
}
