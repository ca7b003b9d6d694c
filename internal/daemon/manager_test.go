// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/sqlite-mcp/internal/health"
	"github.com/ManuGH/sqlite-mcp/internal/log"
)

// blockingTransport serves until ctx ends or release is closed.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingTransport() *blockingTransport {
	return &blockingTransport{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingTransport) Serve(ctx context.Context) error {
	close(b.started)
	select {
	case <-ctx.Done():
		return nil
	case <-b.release:
		return b.err
	}
}

func testDeps(tr Transport) Deps {
	return Deps{Logger: log.WithComponent("test"), Transport: tr, ShutdownTimeout: time.Second}
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Deps{Logger: log.WithComponent("test")})
	assert.ErrorIs(t, err, ErrMissingTransport)

	m, err := NewManager(testDeps(newBlockingTransport()))
	require.NoError(t, err)
	assert.False(t, m.Serving())
}

func TestShutdown_NotStarted(t *testing.T) {
	m, err := NewManager(testDeps(newBlockingTransport()))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Shutdown(t.Context()), ErrManagerNotStarted)
}

func TestStart_TransportEOFStopsDaemonAndRunsHooksLIFO(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := newBlockingTransport()
	m, err := NewManager(testDeps(tr))
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"first", "second", "third"} {
		m.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	<-tr.started
	assert.Eventually(t, m.Serving, time.Second, 5*time.Millisecond)
	close(tr.release)

	require.NoError(t, <-done)
	assert.False(t, m.Serving())
	assert.Equal(t, []string{"third", "second", "first"}, order)

	// A second shutdown is a no-op.
	assert.NoError(t, m.Shutdown(t.Context()))
}

func TestStart_TransportErrorIsReturned(t *testing.T) {
	tr := newBlockingTransport()
	tr.err = io.ErrUnexpectedEOF
	m, err := NewManager(testDeps(tr))
	require.NoError(t, err)
	m.RegisterShutdownHook("failing", func(context.Context) error { return errors.New("hook broke") })

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()
	<-tr.started
	close(tr.release)

	err = <-done
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorContains(t, err, "hook broke")
}

func TestStart_ContextCancelServesHTTPUntilShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	tr := newBlockingTransport()
	deps := testDeps(tr)
	deps.HTTPAddr = "127.0.0.1:0"
	deps.HTTPHandler = NewRouter(health.NewManager("test"))
	m, err := NewManager(deps)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-tr.started

	addr := m.(*manager).httpAddr
	require.NotEmpty(t, addr)
	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
	http.DefaultClient.CloseIdleConnections()
}

func TestStart_Twice(t *testing.T) {
	tr := newBlockingTransport()
	m, err := NewManager(testDeps(tr))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	<-tr.started

	assert.Error(t, m.Start(ctx))
	cancel()
	require.NoError(t, <-done)
}
