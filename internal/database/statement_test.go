// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/sqlite-mcp/internal/errclass"
	xglog "github.com/ManuGH/sqlite-mcp/internal/log"
)

func TestCheckSingleStatement(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		single bool
	}{
		{"plain", "SELECT 1", true},
		{"trailing semicolon", "SELECT 1;", true},
		{"trailing semicolon and comments", "SELECT 1; -- done\n /* really */ ", true},
		{"semicolon in string", "SELECT 'a;b'", true},
		{"escaped quote", "SELECT 'it''s; fine'", true},
		{"semicolon in quoted identifier", `SELECT "a;b" FROM t`, true},
		{"semicolon in bracket identifier", "SELECT [a;b] FROM t", true},
		{"semicolon in backtick identifier", "SELECT `a;b` FROM t", true},
		{"semicolon in line comment", "SELECT 1 -- ; DROP TABLE t", true},
		{"semicolon in block comment", "SELECT 1 /* ; DROP TABLE t */", true},
		{"trigger body", "CREATE TRIGGER trg AFTER INSERT ON t BEGIN INSERT INTO log VALUES (1); UPDATE t SET n = CASE WHEN n > 0 THEN 1 END; END;", true},
		{"temp trigger body", "CREATE TEMP TRIGGER trg AFTER DELETE ON t BEGIN DELETE FROM log; END", true},

		{"chained drop", "SELECT * FROM users WHERE 0; DROP TABLE audit", false},
		{"chained after literal", "UPDATE t SET a = ';' WHERE id = 1; DELETE FROM t", false},
		{"chained after comment", "DELETE FROM t WHERE id = 1 /* ; */; DELETE FROM t", false},
		{"begin is not a trigger", "BEGIN; DROP TABLE t", false},
		{"statement after trigger", "CREATE TRIGGER trg AFTER INSERT ON t BEGIN SELECT 1; END; DROP TABLE t", false},
		{"trigger word later in text", "SELECT trigger FROM a, b, trigger; DROP TABLE t", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSingleStatement(tt.query)
			if tt.single {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMultipleStatements)
			se := errclass.ClassifySQL(err, tt.query)
			assert.Equal(t, errclass.SyntaxError, se.Type)
		})
	}
}

func TestExecute_RejectsChainedStatements(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "chain.db")
	mustExec(t, m, path, "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	mustExec(t, m, path, "CREATE TABLE audit (msg TEXT)")
	mustExec(t, m, path, "INSERT INTO items (name) VALUES ('a'), ('b')")

	for _, q := range []string{
		"SELECT * FROM items WHERE 0; DROP TABLE audit",
		"UPDATE items SET name = 'x' WHERE id = 99; UPDATE items SET name = 'y'",
		"DELETE FROM items WHERE id = 99; DELETE FROM items",
	} {
		res := m.Execute(t.Context(), path, q, nil)
		assert.False(t, res.Success, q)
		assert.Equal(t, "SYNTAX_ERROR: "+ErrMultipleStatements.Error(), res.Error, q)
		assert.Nil(t, res.RowsAffected, q)
	}

	assert.Equal(t, 2, countRows(t, m, path))
	names := mustExec(t, m, path, "SELECT name FROM items ORDER BY id")
	assert.Equal(t, []Row{{"name": "a"}, {"name": "b"}}, names.Data)
	audit := mustExec(t, m, path, "SELECT COUNT(*) AS n FROM sqlite_master WHERE name = 'audit'")
	assert.Equal(t, int64(1), audit.Data[0]["n"])
}

func TestRunTransaction_RejectsChainedOperation(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "chain-tx.db")
	mustExec(t, m, path, "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")

	res := m.RunTransaction(context.Background(), path, []Operation{
		{SQL: "INSERT INTO items (name) VALUES ('a')"},
		{SQL: "INSERT INTO items (name) VALUES ('b'); DROP TABLE items"},
	})
	assert.False(t, res.Success)
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].Success)
	assert.Equal(t, "SYNTAX_ERROR: "+ErrMultipleStatements.Error(), res.Error)
	assert.Equal(t, 0, countRows(t, m, path))
}

func TestExecute_FailureLogCarriesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{Level: "info"}) })

	m := newTestManager(t, Options{})
	ctx := xglog.ContextWithRequestID(t.Context(), "req-42")
	res := m.Execute(ctx, filepath.Join(t.TempDir(), "log.db"), "SELECT * FROM missing", nil)
	require.False(t, res.Success)

	out := buf.String()
	assert.Contains(t, out, `"message":"statement failed"`)
	assert.Contains(t, out, `"request_id":"req-42"`)
	assert.Contains(t, out, `"error_type":"TABLE_NOT_EXISTS"`)
}
