// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package errclass maps raw failures onto the three error families reported
// to tool callers: database (file and connection level), SQL (statement
// level) and protocol (request level).
package errclass

import "github.com/mark3labs/mcp-go/mcp"

// DatabaseErrorType tags connection and file level failures.
type DatabaseErrorType string

const (
	InvalidPath       DatabaseErrorType = "INVALID_PATH"
	PermissionDenied  DatabaseErrorType = "PERMISSION_DENIED"
	DiskFull          DatabaseErrorType = "DISK_FULL"
	CorruptedDatabase DatabaseErrorType = "CORRUPTED_DATABASE"
	ConnectionFailed  DatabaseErrorType = "CONNECTION_FAILED"
)

// SQLErrorType tags statement level failures.
type SQLErrorType string

const (
	SyntaxError         SQLErrorType = "SYNTAX_ERROR"
	TableNotExists      SQLErrorType = "TABLE_NOT_EXISTS"
	ColumnNotExists     SQLErrorType = "COLUMN_NOT_EXISTS"
	ConstraintViolation SQLErrorType = "CONSTRAINT_VIOLATION"
	TypeMismatch        SQLErrorType = "TYPE_MISMATCH"
)

// ProtocolErrorType tags request level failures.
type ProtocolErrorType string

const (
	InvalidRequest    ProtocolErrorType = "INVALID_REQUEST"
	ToolNotFound      ProtocolErrorType = "TOOL_NOT_FOUND"
	InvalidParameters ProtocolErrorType = "INVALID_PARAMETERS"
	InternalError     ProtocolErrorType = "INTERNAL_ERROR"
)

// JSON-RPC codes carried by protocol errors.
const (
	CodeInvalidRequest = mcp.INVALID_REQUEST
	CodeToolNotFound   = mcp.METHOD_NOT_FOUND
	CodeInvalidParams  = mcp.INVALID_PARAMS
	CodeInternalError  = mcp.INTERNAL_ERROR
)

// Code returns the JSON-RPC code for t.
func (t ProtocolErrorType) Code() int {
	switch t {
	case InvalidRequest:
		return CodeInvalidRequest
	case ToolNotFound:
		return CodeToolNotFound
	case InvalidParameters:
		return CodeInvalidParams
	default:
		return CodeInternalError
	}
}

// DatabaseError is a classified connection or file failure.
type DatabaseError struct {
	Type    DatabaseErrorType
	Message string
	Path    string
	Err     error
}

func (e *DatabaseError) Error() string { return string(e.Type) + ": " + e.Message }
func (e *DatabaseError) Unwrap() error { return e.Err }

// SQLError is a classified statement failure.
type SQLError struct {
	Type    SQLErrorType
	Message string
	Query   string
	Err     error
}

func (e *SQLError) Error() string { return string(e.Type) + ": " + e.Message }
func (e *SQLError) Unwrap() error { return e.Err }

// ProtocolError is a classified request failure.
type ProtocolError struct {
	Type    ProtocolErrorType
	Message string
	Tool    string
	Err     error
}

func (e *ProtocolError) Error() string { return string(e.Type) + ": " + e.Message }
func (e *ProtocolError) Unwrap() error { return e.Err }

// Code returns the JSON-RPC code of the error.
func (e *ProtocolError) Code() int { return e.Type.Code() }

// NewDatabaseError builds a DatabaseError with an explicit type.
func NewDatabaseError(t DatabaseErrorType, path string, err error) *DatabaseError {
	return &DatabaseError{Type: t, Message: messageOf(err), Path: path, Err: err}
}

// NewProtocolError builds a ProtocolError with an explicit type.
func NewProtocolError(t ProtocolErrorType, tool, message string) *ProtocolError {
	return &ProtocolError{Type: t, Message: message, Tool: tool}
}

func messageOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
