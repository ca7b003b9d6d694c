// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sqlbuild validates identifiers and builds the statements issued by
// the tools. Identifiers are interpolated into SQL only after validation;
// values always travel as bound parameters.
package sqlbuild

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxIdentifierLength bounds table and column names.
const MaxIdentifierLength = 64

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidConstraint = errors.New("invalid column constraint")
	ErrNoData            = errors.New("no data to insert")
	ErrNoColumns         = errors.New("no columns defined")
	ErrPragmaNotAllowed  = errors.New("pragma not allowed")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AllowedColumnTypes is matched against the part of a type before "(".
var AllowedColumnTypes = []string{
	"INTEGER", "TEXT", "REAL", "BLOB", "NUMERIC",
	"VARCHAR", "CHAR", "BOOLEAN", "DATE", "DATETIME",
	"TIMESTAMP", "DECIMAL", "FLOAT", "DOUBLE",
}

// ValidateIdentifier checks a table or column name.
func ValidateIdentifier(kind, name string) error {
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("%w: %s name %q is longer than %d characters", ErrInvalidIdentifier, kind, name, MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %s name %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

// ValidateColumnType checks t against AllowedColumnTypes, ignoring any
// parenthesised size such as VARCHAR(255).
func ValidateColumnType(t string) error {
	base, _, _ := strings.Cut(t, "(")
	base = strings.ToUpper(strings.TrimSpace(base))
	for _, allowed := range AllowedColumnTypes {
		if base == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidColumnType, t)
}

// ValidateConstraints rejects constraint text that could end the statement
// or hide the rest of it in a comment.
func ValidateConstraints(c string) error {
	for _, bad := range []string{";", "--", "/*", "*/"} {
		if strings.Contains(c, bad) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidConstraint, c, bad)
		}
	}
	return nil
}
