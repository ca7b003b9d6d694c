// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package errclass

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDatabase(t *testing.T) {
	tests := []struct {
		msg  string
		want DatabaseErrorType
	}{
		{"open /x: no such file or directory", InvalidPath},
		{"Cannot open database", InvalidPath},
		{"open /x: permission denied", PermissionDenied},
		{"Access denied", PermissionDenied},
		{"write failed: disk full", DiskFull},
		{"write /x: no space left on device", DiskFull},
		{"database disk image is malformed (11)", CorruptedDatabase},
		{"file is corrupt", CorruptedDatabase},
		{"something else entirely", ConnectionFailed},
		// first rule wins when several match
		{"cannot open: permission denied", InvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := ClassifyDatabase(errors.New(tt.msg), "/db/x.sqlite")
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, "/db/x.sqlite", got.Path)
			assert.Equal(t, tt.msg, got.Message)
		})
	}
}

func TestClassifySQL(t *testing.T) {
	tests := []struct {
		msg  string
		want SQLErrorType
	}{
		{`SQL logic error: near "SELEC": syntax error (1)`, SyntaxError},
		{"SQL logic error: no such table: users (1)", TableNotExists},
		{"SQL logic error: no such column: nme (1)", ColumnNotExists},
		{"constraint failed: UNIQUE constraint failed: t.id (1555)", ConstraintViolation},
		{"FOREIGN KEY constraint failed", ConstraintViolation},
		{"datatype mismatch (20)", TypeMismatch},
		{"column affinity problem", TypeMismatch},
		// unrecognised failures fall back to SYNTAX_ERROR
		{"database is locked (5)", SyntaxError},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := ClassifySQL(errors.New(tt.msg), "SELECT 1")
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, "SELECT 1", got.Query)
		})
	}
}

func TestClassifyProtocol(t *testing.T) {
	tests := []struct {
		msg      string
		want     ProtocolErrorType
		wantCode int
	}{
		{"tool not found: nope", ToolNotFound, -32601},
		{"Unknown tool nope", ToolNotFound, -32601},
		{"invalid parameters: dbPath is required", InvalidParameters, -32602},
		{"schema validation failed", InvalidParameters, -32602},
		{"invalid request", InvalidRequest, -32600},
		{"malformed payload", InvalidRequest, -32600},
		{"boom", InternalError, -32603},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := ClassifyProtocol(errors.New(tt.msg), "select_data")
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.wantCode, got.Code())
			assert.Equal(t, "select_data", got.Tool)
		})
	}
}

func TestGenericDispatch(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		ctx      Context
		wantType string
	}{
		{
			name:     "path with engine mention is a database error",
			err:      errors.New("unable to open database file: permission denied"),
			ctx:      Context{Path: "/x.db", Query: "SELECT 1"},
			wantType: string(PermissionDenied),
		},
		{
			name:     "path without engine mention falls through to query",
			err:      errors.New("no such table: t"),
			ctx:      Context{Path: "/x.db", Query: "SELECT * FROM t"},
			wantType: string(TableNotExists),
		},
		{
			name:     "tool context",
			err:      errors.New("validation failed"),
			ctx:      Context{Tool: "insert_data"},
			wantType: string(InvalidParameters),
		},
		{
			name:     "no context",
			err:      errors.New("no such table: t"),
			wantType: string(InternalError),
		},
		{
			name:     "already classified passes through",
			err:      fmt.Errorf("wrapped: %w", &SQLError{Type: ColumnNotExists, Message: "x"}),
			ctx:      Context{Tool: "select_data"},
			wantType: string(ColumnNotExists),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generic(tt.err, tt.ctx)
			require.Error(t, got)
			assert.True(t, IsClassified(got))
			assert.Equal(t, tt.wantType, TypeOf(got))
		})
	}
	assert.NoError(t, Generic(nil, Context{}))
}

func TestErrorStringAndUnwrap(t *testing.T) {
	raw := errors.New("no such column: x")
	se := ClassifySQL(raw, "SELECT x")
	assert.Equal(t, "COLUMN_NOT_EXISTS: no such column: x", se.Error())
	assert.ErrorIs(t, se, raw)
}

func TestToEnvelope(t *testing.T) {
	env := ToEnvelope(NewProtocolError(ToolNotFound, "nope", "unknown tool: nope"))
	require.NotNil(t, env.Code)
	assert.Equal(t, -32601, *env.Code)
	assert.False(t, env.Success)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.JSON()), &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "TOOL_NOT_FOUND", decoded["errorType"])
	assert.NotContains(t, decoded, "path")

	dbEnv := ToEnvelope(NewDatabaseError(InvalidPath, "../x", errors.New("bad path")))
	assert.Nil(t, dbEnv.Code)
	assert.Equal(t, "../x", dbEnv.Path)

	plain := ToEnvelope(errors.New("oops"))
	assert.Equal(t, string(InternalError), plain.ErrorType)
}
