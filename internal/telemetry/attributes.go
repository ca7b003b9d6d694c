// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Tool attributes
	ToolNameKey      = "mcp.tool"
	ToolRequestIDKey = "mcp.request_id"
	ToolOutcomeKey   = "mcp.outcome"

	// Database attributes
	DBSystemKey       = "db.system"
	DBPathKey         = "db.path"
	DBStatementKey    = "db.statement"
	DBStatementKind   = "db.statement.kind"
	DBRowsAffectedKey = "db.rows_affected"
	DBRowsReturnedKey = "db.rows_returned"
	DBOperationsKey   = "db.transaction.operations"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// maxStatementAttr bounds the statement text attached to spans.
const maxStatementAttr = 512

// ToolAttributes creates tool-call span attributes.
func ToolAttributes(tool, requestID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ToolNameKey, tool)}
	if requestID != "" {
		attrs = append(attrs, attribute.String(ToolRequestIDKey, requestID))
	}
	return attrs
}

// StatementAttributes creates SQL statement span attributes.
func StatementAttributes(path, statement, kind string) []attribute.KeyValue {
	if len(statement) > maxStatementAttr {
		statement = statement[:maxStatementAttr]
	}
	return []attribute.KeyValue{
		attribute.String(DBSystemKey, "sqlite"),
		attribute.String(DBPathKey, path),
		attribute.String(DBStatementKey, statement),
		attribute.String(DBStatementKind, kind),
	}
}

// TransactionAttributes creates transaction span attributes.
func TransactionAttributes(path string, operations int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DBSystemKey, "sqlite"),
		attribute.String(DBPathKey, path),
		attribute.Int(DBOperationsKey, operations),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool(ErrorKey, true)}
	if errorType != "" {
		attrs = append(attrs, attribute.String(ErrorTypeKey, errorType))
	}
	return attrs
}
