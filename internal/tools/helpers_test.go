// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/errclass"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, string) {
	t.Helper()
	d, _, path := newTestEnv(t)
	return d, path
}

func newTestEnv(t *testing.T) (*Dispatcher, *database.Manager, string) {
	t.Helper()
	m := database.NewManager(database.Options{})
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	d, err := NewDispatcher(m)
	require.NoError(t, err)
	return d, m, filepath.Join(t.TempDir(), "test.db")
}

func call(t *testing.T, d *Dispatcher, name string, args map[string]any) Result {
	t.Helper()
	res := d.Call(t.Context(), name, args)
	require.NotEmpty(t, res.Content)
	return res
}

func mustCall(t *testing.T, d *Dispatcher, name string, args map[string]any) Result {
	t.Helper()
	res := call(t, d, name, args)
	require.False(t, res.IsError, "%s: %s", name, res.Content[0].Text)
	require.False(t, res.failed, "%s: %s", name, res.Content[0].Text)
	return res
}

func queryResult(t *testing.T, res Result) database.QueryResult {
	t.Helper()
	qr, ok := res.Structured.(database.QueryResult)
	require.True(t, ok, "structured content is %T", res.Structured)
	return qr
}

func envelope(t *testing.T, res Result) errclass.Envelope {
	t.Helper()
	require.True(t, res.IsError)
	env, ok := res.Structured.(errclass.Envelope)
	require.True(t, ok, "structured content is %T", res.Structured)
	return env
}

func createUsers(t *testing.T, d *Dispatcher, path string) {
	t.Helper()
	mustCall(t, d, ToolCreateTable, map[string]any{
		"dbPath":    path,
		"tableName": "users",
		"columns": []any{
			map[string]any{"name": "id", "type": "INTEGER", "constraints": "PRIMARY KEY"},
			map[string]any{"name": "name", "type": "TEXT", "constraints": "NOT NULL"},
			map[string]any{"name": "age", "type": "INTEGER"},
		},
	})
}

type panickingExecutor struct{}

func (panickingExecutor) Execute(context.Context, string, string, []any) database.QueryResult {
	panic("boom")
}
