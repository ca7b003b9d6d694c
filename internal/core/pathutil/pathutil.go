// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pathutil canonicalises user supplied database paths.
package pathutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is returned for empty paths and paths that try to leave
// their directory through a ".." segment.
var ErrInvalidPath = errors.New("invalid database path")

// ResolveDatabasePath validates raw and returns its absolute, cleaned form.
// It performs no I/O; the file and its parent directory need not exist.
func ResolveDatabasePath(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("%w: path contains a NUL byte", ErrInvalidPath)
	}
	// Any ".." is refused, not only whole segments, so "a/..b" is rejected too.
	if strings.Contains(raw, "..") {
		return "", fmt.Errorf("%w: parent directory access is not allowed: %q", ErrInvalidPath, raw)
	}

	abs, err := filepath.Abs(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return abs, nil
}
