// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlbuild

import (
	"sort"
	"strings"
)

// Column describes one column of a CREATE TABLE statement.
type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Constraints string `json:"constraints,omitempty"`
}

// CreateTable builds "CREATE TABLE name (col type constraints, ...)".
func CreateTable(table string, columns []Column) (string, error) {
	if err := ValidateIdentifier("table", table); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", ErrNoColumns
	}

	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := ValidateIdentifier("column", c.Name); err != nil {
			return "", err
		}
		if err := ValidateColumnType(c.Type); err != nil {
			return "", err
		}
		def := c.Name + " " + strings.TrimSpace(c.Type)
		if cons := strings.TrimSpace(c.Constraints); cons != "" {
			if err := ValidateConstraints(cons); err != nil {
				return "", err
			}
			def += " " + cons
		}
		defs = append(defs, def)
	}
	return "CREATE TABLE " + table + " (" + strings.Join(defs, ", ") + ")", nil
}

// Insert builds a parameterised INSERT for data. Columns are emitted in
// sorted order so the statement is stable for a given key set; the returned
// values line up with the placeholders and are not yet coerced.
func Insert(table string, data map[string]any) (string, []any, error) {
	if err := ValidateIdentifier("table", table); err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, ErrNoData
	}

	cols := make([]string, 0, len(data))
	for c := range data {
		if err := ValidateIdentifier("column", c); err != nil {
			return "", nil, err
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)

	values := make([]any, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		values[i] = data[c]
		placeholders[i] = "?"
	}

	q := "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	return q, values, nil
}
