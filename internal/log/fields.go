// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTool      = "tool"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOutcome   = "outcome"
	FieldDuration  = "duration"

	// Storage fields
	FieldPath        = "db_path"
	FieldQuery       = "query"
	FieldErrorType   = "error_type"
	FieldReason      = "reason"
	FieldConnections = "connections"
)
