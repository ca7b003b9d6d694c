// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/sqlite-mcp/internal/database"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(t.Context(), true)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_Verbose(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(t.Context(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(t.Context(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		ready    bool
		overall  Status
	}{
		{"none", nil, true, StatusHealthy},
		{"healthy", []Status{StatusHealthy}, true, StatusHealthy},
		{"degraded stays ready", []Status{StatusHealthy, StatusDegraded}, true, StatusDegraded},
		{"unhealthy wins", []Status{StatusUnhealthy, StatusDegraded}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("test")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Ready(t.Context())
			assert.Equal(t, tt.ready, resp.Ready)
			assert.Equal(t, tt.overall, resp.Status)
		})
	}
}

func TestServeReady_StatusCodes(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Ready)
	assert.Equal(t, StatusUnhealthy, body.Checks["db"].Status)

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeCache struct {
	stats database.Stats
	err   error
}

func (f fakeCache) Stats() database.Stats      { return f.stats }
func (f fakeCache) Ping(context.Context) error { return f.err }

func TestCacheChecker(t *testing.T) {
	tests := []struct {
		name  string
		cache fakeCache
		want  Status
	}{
		{"healthy", fakeCache{stats: database.Stats{Open: 1, Max: 50}}, StatusHealthy},
		{"full", fakeCache{stats: database.Stats{Open: 50, Max: 50}}, StatusDegraded},
		{"ping failure", fakeCache{stats: database.Stats{Open: 1, Max: 50}, err: errors.New("closed")}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewCacheChecker(tt.cache).Check(t.Context())
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.cache.stats.Open, res.Details["open"])
		})
	}
}

func TestCacheChecker_RealManager(t *testing.T) {
	m := database.NewManager(database.Options{MaxConnections: 2})
	c := NewCacheChecker(m)

	_, err := m.Acquire(t.Context(), filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, c.Check(t.Context()).Status)

	require.NoError(t, m.Close())
	assert.Equal(t, StatusUnhealthy, c.Check(t.Context()).Status)
}

func TestTransportChecker(t *testing.T) {
	running := true
	c := NewTransportChecker(func() bool { return running })
	assert.Equal(t, StatusHealthy, c.Check(t.Context()).Status)
	running = false
	assert.Equal(t, StatusUnhealthy, c.Check(t.Context()).Status)
}
