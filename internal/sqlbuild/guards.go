// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlbuild

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrQueryRejected is wrapped by every guard failure.
var ErrQueryRejected = errors.New("query rejected")

var updateForbidden = []*regexp.Regexp{
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`(?i)truncate`),
	regexp.MustCompile(`(?i)alter\s+table`),
	regexp.MustCompile(`(?i)create\s+table`),
}

var deleteForbidden = []*regexp.Regexp{
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)truncate`),
	regexp.MustCompile(`(?i)alter\s+table`),
	regexp.MustCompile(`(?i)create\s+table`),
	regexp.MustCompile(`(?i)update\s+`),
	regexp.MustCompile(`(?i)insert\s+`),
}

func normalized(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// GuardSelect accepts only statements starting with SELECT.
func GuardSelect(q string) error {
	if !strings.HasPrefix(normalized(q), "select") {
		return fmt.Errorf("%w: only SELECT queries are allowed", ErrQueryRejected)
	}
	return nil
}

// GuardUpdate accepts UPDATE statements with a SET clause and none of the
// forbidden constructs.
func GuardUpdate(q string) error {
	n := normalized(q)
	if !strings.HasPrefix(n, "update") {
		return fmt.Errorf("%w: only UPDATE queries are allowed", ErrQueryRejected)
	}
	if !strings.Contains(n, "set") {
		return fmt.Errorf("%w: UPDATE query requires a SET clause", ErrQueryRejected)
	}
	return checkForbidden(q, updateForbidden)
}

// GuardDelete accepts DELETE statements with a FROM clause and none of the
// forbidden constructs.
func GuardDelete(q string) error {
	n := normalized(q)
	if !strings.HasPrefix(n, "delete") {
		return fmt.Errorf("%w: only DELETE queries are allowed", ErrQueryRejected)
	}
	if !strings.Contains(n, "from") {
		return fmt.Errorf("%w: DELETE query requires a FROM clause", ErrQueryRejected)
	}
	return checkForbidden(q, deleteForbidden)
}

func checkForbidden(q string, patterns []*regexp.Regexp) error {
	for _, p := range patterns {
		if p.MatchString(q) {
			return fmt.Errorf("%w: query contains a forbidden statement (%s)", ErrQueryRejected, p.String()[4:])
		}
	}
	return nil
}
