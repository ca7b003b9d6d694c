// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/sqlite-mcp/internal/errclass"
	"github.com/ManuGH/sqlite-mcp/internal/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAcquire_CacheIdentity(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "a.db")

	first, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)
	second, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first.DB, second.DB)
	assert.Equal(t, 1, m.Len())

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestAcquire_EquivalentSpellingsShareHandle(t *testing.T) {
	m := newTestManager(t, Options{})
	dir := t.TempDir()

	a, err := m.Acquire(context.Background(), filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	b, err := m.Acquire(context.Background(), dir+"/./x.db")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestAcquire_Independence(t *testing.T) {
	m := newTestManager(t, Options{})
	dir := t.TempDir()
	p1 := filepath.Join(dir, "one.db")
	p2 := filepath.Join(dir, "two.db")

	e1, err := m.Acquire(context.Background(), p1)
	require.NoError(t, err)
	e2, err := m.Acquire(context.Background(), p2)
	require.NoError(t, err)
	assert.NotSame(t, e1.DB, e2.DB)

	mustExec(t, m, p1, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	mustExec(t, m, p2, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	mustExec(t, m, p1, "INSERT INTO t (v) VALUES (?)", "only-in-one")

	one := mustExec(t, m, p1, "SELECT v FROM t")
	two := mustExec(t, m, p2, "SELECT v FROM t")
	assert.Len(t, one.Data, 1)
	assert.Empty(t, two.Data)
}

func TestAcquire_TraversalRejectedBeforeFilesystem(t *testing.T) {
	m := newTestManager(t, Options{})
	dir := t.TempDir()

	for _, raw := range []string{"", dir + "/sub/../x.db", "../escape.db"} {
		_, err := m.Acquire(context.Background(), raw)
		require.Error(t, err, raw)

		var de *errclass.DatabaseError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, errclass.InvalidPath, de.Type)
	}

	_, statErr := os.Stat(filepath.Join(dir, "sub"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, m.Len())
}

func TestAcquire_CreatesParentDirsAndUsesWAL(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "deep", "nested", "app.db")

	e, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	mode, err := sqlite.JournalMode(context.Background(), e.DB)
	require.NoError(t, err)
	assert.Equal(t, "wal", strings.ToLower(mode))
	assert.Equal(t, 1, e.DB.Stats().MaxOpenConnections)
}

func TestAcquire_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Options{MaxConnections: 2, IdleTimeout: time.Hour, Now: clock.Now})
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db"), filepath.Join(dir, "c.db")

	ea, err := m.Acquire(context.Background(), a)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	_, err = m.Acquire(context.Background(), b)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	// touch a so b becomes the oldest
	_, err = m.Acquire(context.Background(), a)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	_, err = m.Acquire(context.Background(), c)
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Open)
	assert.ElementsMatch(t, []string{a, c}, stats.Paths)
	assert.Equal(t, int64(1), stats.Evictions)

	again, err := m.Acquire(context.Background(), a)
	require.NoError(t, err)
	assert.Same(t, ea, again)
}

func TestAcquire_IdleEntriesEvictedFirst(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Options{MaxConnections: 3, IdleTimeout: 30 * time.Minute, Now: clock.Now})
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db"), filepath.Join(dir, "c.db")}

	for _, p := range paths[:2] {
		_, err := m.Acquire(context.Background(), p)
		require.NoError(t, err)
	}
	clock.Advance(31 * time.Minute)
	_, err := m.Acquire(context.Background(), paths[2])
	require.NoError(t, err)

	// below capacity: nothing evicted yet even though a and b are idle
	assert.Equal(t, 3, m.Len())

	_, err = m.Acquire(context.Background(), filepath.Join(dir, "d.db"))
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Open)
	assert.ElementsMatch(t, []string{paths[2], filepath.Join(dir, "d.db")}, stats.Paths)
	assert.Equal(t, int64(2), stats.Evictions)
}

func TestAcquire_ConcurrentSamePathOpensOnce(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "shared.db")

	const workers = 16
	entries := make([]*Entry, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := m.Acquire(context.Background(), path)
			assert.NoError(t, err)
			entries[i] = e
		}(i)
	}
	wg.Wait()

	for _, e := range entries[1:] {
		assert.Same(t, entries[0], e)
	}
	assert.Equal(t, int64(1), m.Stats().Misses)
}

func TestRelease(t *testing.T) {
	m := newTestManager(t, Options{})
	path := filepath.Join(t.TempDir(), "r.db")

	require.NoError(t, m.Release(path), "releasing an unknown path is a no-op")

	first, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, m.Release(path))
	assert.Equal(t, 0, m.Len())
	assert.Error(t, first.DB.Ping(), "released handle is closed")

	second, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	var de *errclass.DatabaseError
	require.ErrorAs(t, m.Release("../x.db"), &de)
}

func TestReleaseAllAndClose(t *testing.T) {
	m := NewManager(Options{})
	dir := t.TempDir()
	for _, name := range []string{"a.db", "b.db"} {
		_, err := m.Acquire(context.Background(), filepath.Join(dir, name))
		require.NoError(t, err)
	}
	require.NoError(t, m.ReleaseAll())
	assert.Equal(t, 0, m.Len())

	_, err := m.Acquire(context.Background(), filepath.Join(dir, "a.db"))
	require.NoError(t, err, "manager stays usable after ReleaseAll")

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, err = m.Acquire(context.Background(), filepath.Join(dir, "a.db"))
	assert.ErrorIs(t, err, ErrClosed)

	res := m.Execute(context.Background(), filepath.Join(dir, "a.db"), "SELECT 1", nil)
	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error, string(errclass.ConnectionFailed)+":"), res.Error)
}

func TestReap(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Options{IdleTimeout: time.Minute, Now: clock.Now})
	dir := t.TempDir()

	_, err := m.Acquire(context.Background(), filepath.Join(dir, "old.db"))
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = m.Acquire(context.Background(), filepath.Join(dir, "fresh.db"))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Reap())
	assert.Equal(t, []string{filepath.Join(dir, "fresh.db")}, m.Stats().Paths)
}

func TestBackgroundReaper_StopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := newFakeClock()
	m := NewManager(Options{IdleTimeout: time.Minute, ReapInterval: 10 * time.Millisecond, Now: clock.Now})
	_, err := m.Acquire(context.Background(), filepath.Join(t.TempDir(), "idle.db"))
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Close())
}

func TestPing(t *testing.T) {
	m := newTestManager(t, Options{})
	_, err := m.Acquire(context.Background(), filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	assert.NoError(t, m.Ping(context.Background()))
}

func TestSetLimits_ShrinksToNewCapacity(t *testing.T) {
	clock := newFakeClock()
	m := newTestManager(t, Options{MaxConnections: 3, IdleTimeout: time.Hour, Now: clock.Now})
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db"), filepath.Join(dir, "c.db")}
	for _, p := range paths {
		_, err := m.Acquire(context.Background(), p)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	m.SetLimits(1, 0)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Max)
	assert.Equal(t, []string{paths[2]}, stats.Paths)
	assert.Equal(t, int64(2), stats.Evictions)

	// A zero capacity keeps the current one.
	m.SetLimits(0, time.Minute)
	assert.Equal(t, 1, m.Stats().Max)
}

func TestAcquire_CancelledCallerDoesNotFailSharedOpen(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var opens atomic.Int32
	m := newTestManager(t, Options{
		Open: func(ctx context.Context, path string, cfg sqlite.Config) (*sql.DB, error) {
			opens.Add(1)
			close(started)
			<-release
			return sqlite.Open(ctx, path, cfg)
		},
	})
	path := filepath.Join(t.TempDir(), "shared.db")

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Acquire(firstCtx, path)
		firstErr <- err
	}()
	<-started

	second := make(chan *Entry, 1)
	go func() {
		e, err := m.Acquire(context.Background(), path)
		assert.NoError(t, err)
		second <- e
	}()

	// The first caller gives up while the open is still blocked.
	cancelFirst()
	err := <-firstErr
	require.ErrorIs(t, err, context.Canceled)
	var de *errclass.DatabaseError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, errclass.ConnectionFailed, de.Type)

	close(release)
	e := <-second
	require.NotNil(t, e)
	require.NoError(t, e.DB.PingContext(context.Background()))

	again, err := m.Acquire(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, e, again)
	assert.Equal(t, int32(1), opens.Load())
}
