// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ManuGH/sqlite-mcp/internal/database"
	"github.com/ManuGH/sqlite-mcp/internal/sqlbuild"
)

// Executor runs single statements. *database.Manager satisfies it.
type Executor interface {
	Execute(ctx context.Context, path, query string, params []any) database.QueryResult
}

// ContentTypeText is the only content type emitted.
const ContentTypeText = "text"

// Content is one segment of a reply.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the reply to one tool call.
type Result struct {
	Content    []Content `json:"content"`
	Structured any       `json:"structuredContent,omitempty"`
	IsError    bool      `json:"isError,omitempty"`

	// failed marks a reply whose payload reports success=false.
	failed bool
}

func textResult(text string, structured any, failed bool) Result {
	return Result{
		Content:    []Content{{Type: ContentTypeText, Text: text}},
		Structured: structured,
		failed:     failed,
	}
}

// jsonResult renders structured as indented JSON text.
func jsonResult(structured any, failed bool) Result {
	b, err := json.MarshalIndent(structured, "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("failed to encode result: %v", err), structured, true)
	}
	return textResult(string(b), structured, failed)
}

// ErrInvalidArguments marks caller mistakes that were caught before any
// statement ran.
var ErrInvalidArguments = errors.New("invalid parameters")

func invalidArgs(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notnull"`
	Default    any    `json:"dflt_value"`
	PrimaryKey bool   `json:"pk"`
}

// SchemaResult is the payload of get_schema.
type SchemaResult struct {
	Success bool         `json:"success"`
	Tables  []string     `json:"tables,omitzero"`
	Schema  string       `json:"schema,omitempty"`
	Columns []ColumnInfo `json:"columns,omitzero"`
	Error   string       `json:"error,omitempty"`
}

// MetaResult is the payload of meta_commands.
type MetaResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Error   string `json:"error,omitempty"`
}

type createTableArgs struct {
	DBPath    string            `json:"dbPath"`
	TableName string            `json:"tableName"`
	Columns   []sqlbuild.Column `json:"columns"`
}

type insertDataArgs struct {
	DBPath    string         `json:"dbPath"`
	TableName string         `json:"tableName"`
	Data      map[string]any `json:"data"`
}

type queryArgs struct {
	DBPath string `json:"dbPath"`
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

type getSchemaArgs struct {
	DBPath    string `json:"dbPath"`
	TableName string `json:"tableName"`
}

type metaCommandArgs struct {
	DBPath  string `json:"dbPath"`
	Command string `json:"command"`
	Target  string `json:"target"`
}

type testToolArgs struct {
	Message string `json:"message"`
}
