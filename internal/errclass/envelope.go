// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package errclass

import (
	"encoding/json"
	"errors"
)

// Envelope is the JSON body of an error reply.
type Envelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"errorType"`
	Code      *int   `json:"code,omitempty"`
	Path      string `json:"path,omitempty"`
	Query     string `json:"query,omitempty"`
}

// ToEnvelope renders err. Unclassified errors become INTERNAL_ERROR.
func ToEnvelope(err error) Envelope {
	var (
		de *DatabaseError
		se *SQLError
		pe *ProtocolError
	)
	switch {
	case errors.As(err, &pe):
		code := pe.Code()
		return Envelope{Error: pe.Message, ErrorType: string(pe.Type), Code: &code}
	case errors.As(err, &de):
		return Envelope{Error: de.Message, ErrorType: string(de.Type), Path: de.Path}
	case errors.As(err, &se):
		return Envelope{Error: se.Message, ErrorType: string(se.Type), Query: se.Query}
	default:
		code := CodeInternalError
		return Envelope{Error: messageOf(err), ErrorType: string(InternalError), Code: &code}
	}
}

// JSON returns the indented envelope text.
func (e Envelope) JSON() string {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return `{"success": false, "error": "failed to encode error", "errorType": "INTERNAL_ERROR"}`
	}
	return string(b)
}
