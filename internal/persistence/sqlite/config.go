// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sqlite opens database files with the pragmas every handle must carry.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Config defines standard SQLite operational parameters.
type Config struct {
	// BusyTimeout is how long a statement waits on a locked database before
	// failing with SQLITE_BUSY.
	BusyTimeout time.Duration
	// MaxOpenConns is 1 for cached handles: a single connection serialises
	// statements and keeps BEGIN/COMMIT on the same session.
	MaxOpenConns int
	ForeignKeys  bool
}

// DefaultConfig returns the configuration used for cached handles.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
		ForeignKeys:  true,
	}
}

// DSN builds the driver connection string. Pragmas live in the DSN so they
// apply to every connection database/sql opens, including reconnects.
func DSN(dbPath string, cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	if cfg.ForeignKeys {
		q.Add("_pragma", "foreign_keys(ON)")
	}
	return "file:" + escapePath(dbPath) + "?" + q.Encode()
}

// escapePath keeps the path readable while escaping the characters that
// would otherwise end the path component of the URI.
func escapePath(p string) string {
	u := url.URL{Path: p}
	return u.EscapedPath()
}

// Open initialises a SQLite handle with mandatory PRAGMAs and checks that the
// file can actually be opened.
func Open(ctx context.Context, dbPath string, cfg Config) (*sql.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 1
	}

	db, err := sql.Open(DriverName, DSN(dbPath, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(0)

	// sql.Open is lazy; the ping creates the file and applies the pragmas.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}

// JournalMode reports the journal mode of the connection backing db.
func JournalMode(ctx context.Context, db *sql.DB) (string, error) {
	var mode string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", fmt.Errorf("sqlite: read journal_mode: %w", err)
	}
	return mode, nil
}
