// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon runs the protocol transport next to the optional HTTP side
// listener and tears both down in order.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start runs the transport and side listener and blocks until the
	// transport ends, a server fails or ctx is cancelled.
	Start(ctx context.Context) error

	// Shutdown stops the side listener and runs the shutdown hooks.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)

	// Serving reports whether the transport loop is running.
	Serving() bool
}

type manager struct {
	deps Deps

	httpServer *http.Server
	httpAddr   string

	shutdownHooks []namedHook

	started  bool
	stopping bool
	serving  atomic.Bool
	mu       sync.Mutex

	logger zerolog.Logger
}

// namedHook represents a shutdown hook with a name for logging
type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given dependencies.
func NewManager(deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.ShutdownTimeout <= 0 {
		deps.ShutdownTimeout = defaultShutdownTimeout
	}
	return &manager{
		deps:   deps,
		logger: deps.Logger.With().Str("component", "manager").Logger(),
	}, nil
}

func (m *manager) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("start context is nil")
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("manager already started")
	}
	m.started = true
	m.mu.Unlock()

	errChan := make(chan error, 2)
	if m.deps.HTTPAddr != "" && m.deps.HTTPHandler != nil {
		if err := m.startHTTPServer(errChan); err != nil {
			return fmt.Errorf("failed to start http listener: %w", err)
		}
	}

	transportCtx, stopTransport := context.WithCancel(ctx)
	defer stopTransport()
	transportDone := make(chan error, 1)
	m.serving.Store(true)
	go func() {
		defer m.serving.Store(false)
		transportDone <- m.deps.Transport.Serve(transportCtx)
	}()

	m.logger.Info().
		Str("event", "daemon.started").
		Str("http_addr", m.httpAddr).
		Msg("daemon started")

	var runErr error
	select {
	case err := <-transportDone:
		if err != nil {
			m.logger.Error().Err(err).Str("event", "transport.failed").Msg("transport failed, initiating shutdown")
			runErr = fmt.Errorf("transport: %w", err)
		} else {
			m.logger.Info().Str("event", "transport.closed").Msg("transport closed, initiating shutdown")
		}
	case err := <-errChan:
		m.logger.Error().Err(err).Msg("server error, initiating shutdown")
		runErr = err
		stopTransport()
		<-transportDone
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
		<-transportDone
	}

	// Detached but bounded so shutdown completes even if the parent is cancelled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.deps.ShutdownTimeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (m *manager) startHTTPServer(errChan chan<- error) error {
	ln, err := net.Listen("tcp", m.deps.HTTPAddr)
	if err != nil {
		return err
	}
	m.httpAddr = ln.Addr().String()
	m.httpServer = &http.Server{
		Handler:           m.deps.HTTPHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info().Str("addr", m.httpAddr).Msg("http side listener serving")
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str("event", "http.server.failed").
				Msg("http side listener failed")
			errChan <- fmt.Errorf("http listener: %w", err)
		}
	}()
	return nil
}

func (m *manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("shutdown context is nil")
	}

	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Msg("shutting down daemon manager")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.deps.ShutdownTimeout)
	defer cancel()

	var errs []error
	if m.httpServer != nil {
		if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http listener shutdown: %w", err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}

func (m *manager) Serving() bool {
	return m.serving.Load()
}
