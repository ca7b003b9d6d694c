// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Transport serves the tool protocol until ctx is cancelled or its input
// ends. A nil return means the peer went away cleanly.
type Transport interface {
	Serve(ctx context.Context) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context) error

// Serve calls f(ctx).
func (f TransportFunc) Serve(ctx context.Context) error { return f(ctx) }

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Transport carries tool calls (stdio in production)
	Transport Transport

	// HTTPAddr enables the side listener for /metrics, /healthz and /readyz
	// when non-empty.
	HTTPAddr string

	// HTTPHandler serves the side listener
	HTTPHandler http.Handler

	// ShutdownTimeout bounds graceful shutdown; zero means 10s.
	ShutdownTimeout time.Duration
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.Transport == nil {
		return ErrMissingTransport
	}
	return nil
}
