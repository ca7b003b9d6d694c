// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package errclass

import "strings"

// rule maps any of its needles to a category. Tables are evaluated top to
// bottom against the lowercased message and the first hit wins; the fallback
// passed to match applies when nothing hits.
type rule[T ~string] struct {
	needles []string
	typ     T
}

var databaseRules = []rule[DatabaseErrorType]{
	{needles: []string{"no such file", "cannot open"}, typ: InvalidPath},
	{needles: []string{"permission", "access denied"}, typ: PermissionDenied},
	{needles: []string{"disk full", "no space"}, typ: DiskFull},
	{needles: []string{"corrupt", "malformed"}, typ: CorruptedDatabase},
}

// sqlRules keeps "near" ahead of the table and column rules, so a message
// like `near "x": syntax error` is never mistaken for anything else.
var sqlRules = []rule[SQLErrorType]{
	{needles: []string{"syntax error", "near"}, typ: SyntaxError},
	{needles: []string{"no such table"}, typ: TableNotExists},
	{needles: []string{"no such column"}, typ: ColumnNotExists},
	{needles: []string{"constraint", "unique", "foreign key"}, typ: ConstraintViolation},
	{needles: []string{"type", "affinity"}, typ: TypeMismatch},
}

var protocolRules = []rule[ProtocolErrorType]{
	{needles: []string{"tool not found", "unknown tool"}, typ: ToolNotFound},
	{needles: []string{"invalid parameters", "validation"}, typ: InvalidParameters},
	{needles: []string{"invalid request", "malformed"}, typ: InvalidRequest},
}

// Fallbacks. The SQL fallback labels every unrecognised statement failure as
// a syntax error, which is known to mislabel e.g. busy or I/O errors.
const (
	databaseFallback = ConnectionFailed
	sqlFallback      = SyntaxError
	protocolFallback = InternalError
)

// engineMentions decides whether a message is about the storage engine.
var engineMentions = []string{"database", "sqlite"}

func match[T ~string](message string, rules []rule[T], fallback T) T {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.typ
			}
		}
	}
	return fallback
}

func mentionsEngine(message string) bool {
	lower := strings.ToLower(message)
	for _, n := range engineMentions {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
