// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/sqlite-mcp/internal/errclass"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
	"github.com/ManuGH/sqlite-mcp/internal/metrics"
	"github.com/ManuGH/sqlite-mcp/internal/telemetry"
)

// Statement kinds.
const (
	KindRead  = "read"
	KindWrite = "write"
)

// QueryResult is the outcome of one statement. Failures are reported in
// Error, prefixed with the classified type code; Execute never returns a Go
// error.
type QueryResult struct {
	Success      bool     `json:"success"`
	Data         []Row    `json:"data,omitzero"`
	Columns      []string `json:"-"`
	RowsAffected *int64   `json:"rowsAffected,omitempty"`
	LastInsertID *int64   `json:"lastInsertId,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// IsRead reports whether query returns rows: its trimmed text starts with
// SELECT or PRAGMA, case-insensitively.
func IsRead(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "select") || strings.HasPrefix(q, "pragma")
}

func isInsert(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return strings.HasPrefix(q, "insert") || strings.HasPrefix(q, "replace")
}

func kindOf(query string) string {
	if IsRead(query) {
		return KindRead
	}
	return KindWrite
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Execute runs one statement against the handle for rawPath.
func (m *Manager) Execute(ctx context.Context, rawPath, query string, params []any) QueryResult {
	ctx, cancel := m.statementContext(ctx)
	defer cancel()

	var res QueryResult
	err := m.withHandle(ctx, rawPath, func(e *Entry) error {
		res = m.runStatement(ctx, e.DB, e.Path, query, params)
		if !res.Success && isClosedHandle(res.Error) {
			return errHandleClosed
		}
		return nil
	})
	if err != nil {
		return failure(err, rawPath)
	}
	return res
}

func (m *Manager) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.opts.QueryTimeout > 0 {
		return context.WithTimeout(ctx, m.opts.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// errHandleClosed signals that an evicted handle was used between Acquire
// and the statement; withHandle retries once on a fresh handle.
var errHandleClosed = errors.New("database: handle closed during use")

func isClosedHandle(msg string) bool {
	return strings.Contains(msg, "sql: database is closed")
}

func (m *Manager) withHandle(ctx context.Context, rawPath string, fn func(*Entry) error) error {
	for attempt := 0; ; attempt++ {
		e, err := m.Acquire(ctx, rawPath)
		if err != nil {
			return err
		}
		err = fn(e)
		if errors.Is(err, errHandleClosed) && attempt == 0 {
			continue
		}
		if errors.Is(err, errHandleClosed) {
			return errclass.NewDatabaseError(errclass.ConnectionFailed, e.Path, err)
		}
		return err
	}
}

// failure reports an error raised before any statement ran; those are
// always connection level.
func failure(err error, rawPath string) QueryResult {
	return QueryResult{Success: false, Error: errclass.ClassifyDatabase(err, rawPath).Error()}
}

func (m *Manager) runStatement(ctx context.Context, q queryer, path, query string, params []any) QueryResult {
	kind := kindOf(query)
	ctx, span := telemetry.StartSpan(ctx, "db.statement", telemetry.StatementAttributes(path, query, kind)...)
	start := time.Now()

	var (
		res QueryResult
		err error
	)
	args := CoerceParams(params)
	if err = checkSingleStatement(query); err == nil {
		if kind == KindRead {
			res, err = readRows(ctx, q, query, args)
		} else {
			res, err = exec(ctx, q, query, args)
		}
	}

	elapsed := time.Since(start)
	if err != nil {
		se := errclass.ClassifySQL(err, query)
		res = QueryResult{Success: false, Error: se.Error()}
		metrics.RecordStatement(kind, metrics.OutcomeFailure, elapsed.Seconds())
		metrics.RecordStatementError(string(se.Type))
		telemetry.EndSpan(span, err, string(se.Type))
		logger := xglog.WithContext(ctx, m.logger)
		logger.Debug().
			Str(xglog.FieldPath, path).
			Str(xglog.FieldQuery, query).
			Str(xglog.FieldErrorType, string(se.Type)).
			Err(err).
			Msg("statement failed")
		return res
	}

	metrics.RecordStatement(kind, metrics.OutcomeSuccess, elapsed.Seconds())
	telemetry.EndSpan(span, nil, "")
	return res
}

func readRows(ctx context.Context, q queryer, query string, args []any) (QueryResult, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return QueryResult{}, fmt.Errorf("read columns: %w", err)
	}

	data := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return QueryResult{}, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeColumn(values[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Success: true, Data: data, Columns: cols}, nil
}

func exec(ctx context.Context, q queryer, query string, args []any) (QueryResult, error) {
	r, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return QueryResult{}, err
	}
	res := QueryResult{Success: true}
	if n, err := r.RowsAffected(); err == nil {
		res.RowsAffected = &n
	}
	if isInsert(query) {
		if id, err := r.LastInsertId(); err == nil {
			res.LastInsertID = &id
		}
	}
	return res, nil
}
