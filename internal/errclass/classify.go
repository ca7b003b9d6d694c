// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package errclass

import "errors"

// ClassifyDatabase classifies a connection or file failure for path.
func ClassifyDatabase(err error, path string) *DatabaseError {
	var de *DatabaseError
	if errors.As(err, &de) {
		return de
	}
	msg := messageOf(err)
	return &DatabaseError{
		Type:    match(msg, databaseRules, databaseFallback),
		Message: msg,
		Path:    path,
		Err:     err,
	}
}

// ClassifySQL classifies a statement failure for query.
func ClassifySQL(err error, query string) *SQLError {
	var se *SQLError
	if errors.As(err, &se) {
		return se
	}
	msg := messageOf(err)
	return &SQLError{
		Type:    match(msg, sqlRules, sqlFallback),
		Message: msg,
		Query:   query,
		Err:     err,
	}
}

// ClassifyProtocol classifies a request failure raised while serving tool.
func ClassifyProtocol(err error, tool string) *ProtocolError {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe
	}
	msg := messageOf(err)
	return &ProtocolError{
		Type:    match(msg, protocolRules, protocolFallback),
		Message: msg,
		Tool:    tool,
		Err:     err,
	}
}

// Context names what the failing operation was working on. Any field may be
// empty.
type Context struct {
	Path  string
	Query string
	Tool  string
}

// Generic picks a family from ctx and classifies err into it. Errors that are
// already classified are returned unchanged.
//
//   - a path is known and the message mentions the engine: database error
//   - a query is known: SQL error
//   - a tool is known: protocol error
//   - otherwise: protocol INTERNAL_ERROR
func Generic(err error, ctx Context) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	msg := messageOf(err)
	switch {
	case ctx.Path != "" && mentionsEngine(msg):
		return ClassifyDatabase(err, ctx.Path)
	case ctx.Query != "":
		return ClassifySQL(err, ctx.Query)
	case ctx.Tool != "":
		return ClassifyProtocol(err, ctx.Tool)
	default:
		return &ProtocolError{Type: InternalError, Message: msg, Err: err}
	}
}

// IsClassified reports whether err carries one of the three families.
func IsClassified(err error) bool {
	var (
		de *DatabaseError
		se *SQLError
		pe *ProtocolError
	)
	return errors.As(err, &de) || errors.As(err, &se) || errors.As(err, &pe)
}

// TypeOf returns the type code of a classified error, or "" when err is not
// classified.
func TypeOf(err error) string {
	var (
		de *DatabaseError
		se *SQLError
		pe *ProtocolError
	)
	switch {
	case errors.As(err, &pe):
		return string(pe.Type)
	case errors.As(err, &de):
		return string(de.Type)
	case errors.As(err, &se):
		return string(se.Type)
	}
	return ""
}
