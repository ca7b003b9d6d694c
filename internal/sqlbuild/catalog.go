// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlbuild

import (
	"fmt"
	"regexp"
	"strings"
)

// Catalog queries against sqlite_master. Internal sqlite_* objects are hidden.
const (
	ListTablesQuery = `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
ORDER BY name`

	TableExistsQuery = `SELECT name FROM sqlite_master
WHERE type = 'table' AND name = ? AND name NOT LIKE 'sqlite_%'`

	TableDDLQuery = `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`

	MetaTablesQuery = `SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY type, name`

	metaSchemaAllQuery = `SELECT sql FROM sqlite_master
WHERE type IN ('table', 'view', 'index', 'trigger')
  AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
ORDER BY type, name`

	metaSchemaTargetQuery = `SELECT sql FROM sqlite_master
WHERE type IN ('table', 'view', 'index', 'trigger')
  AND (tbl_name = ? OR name = ?) AND sql IS NOT NULL
ORDER BY type, name`

	metaIndexesAllQuery = `SELECT name, tbl_name, sql FROM sqlite_master
WHERE type = 'index' AND name NOT LIKE 'sqlite_%'
ORDER BY tbl_name, name`

	metaIndexesTargetQuery = `SELECT name, tbl_name, sql FROM sqlite_master
WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite_%'
ORDER BY name`
)

// DefaultPragmas are reported by ".pragma" without a target.
var DefaultPragmas = []string{
	"database_list",
	"table_list",
	"foreign_key_list",
	"index_list",
	"user_version",
	"schema_version",
	"page_size",
	"cache_size",
	"journal_mode",
	"synchronous",
	"foreign_keys",
}

// TableInfo returns "PRAGMA table_info(table)" for a validated table name.
func TableInfo(table string) (string, error) {
	if err := ValidateIdentifier("table", table); err != nil {
		return "", err
	}
	return "PRAGMA table_info(" + table + ")", nil
}

// MetaSchema returns the ".schema" query and its parameters.
func MetaSchema(target string) (string, []any) {
	if target == "" {
		return metaSchemaAllQuery, nil
	}
	return metaSchemaTargetQuery, []any{target, target}
}

// MetaIndexes returns the ".indexes" query and its parameters.
func MetaIndexes(target string) (string, []any) {
	if target == "" {
		return metaIndexesAllQuery, nil
	}
	return metaIndexesTargetQuery, []any{target}
}

var pragmaTargetPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\))?$`)

// argumentPragmas take a table or index name and only read the catalog.
// For every other pragma "name(value)" is a setter.
var argumentPragmas = map[string]bool{
	"table_info":       true,
	"table_xinfo":      true,
	"index_list":       true,
	"index_info":       true,
	"index_xinfo":      true,
	"foreign_key_list": true,
}

// writingPragmas change the database file even without an argument.
var writingPragmas = map[string]bool{
	"optimize":           true,
	"shrink_memory":      true,
	"wal_checkpoint":     true,
	"incremental_vacuum": true,
}

// Pragma returns "PRAGMA target" for a read-only target: a pragma name, or
// one of the catalog pragmas followed by a single identifier argument.
// Assignments and setter calls are refused.
func Pragma(target string) (string, error) {
	m := pragmaTargetPattern.FindStringSubmatch(target)
	if len(target) > 2*MaxIdentifierLength+2 || m == nil {
		return "", fmt.Errorf("%w: pragma %q", ErrInvalidIdentifier, target)
	}
	name := strings.ToLower(m[1])
	if writingPragmas[name] || (m[2] != "" && !argumentPragmas[name]) {
		return "", fmt.Errorf("%w: %q would modify the database", ErrPragmaNotAllowed, target)
	}
	return "PRAGMA " + target, nil
}
