package dashboard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coconut-supply/dashboard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSource serves the current list, optionally holding each fetch until
// released.
type gatedSource struct {
	mu      sync.Mutex
	items   []int
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newGatedSource(items ...int) *gatedSource {
	return &gatedSource{items: items, started: make(chan struct{}, 8), release: make(chan struct{}, 8)}
}

func (g *gatedSource) set(items ...int) {
	g.mu.Lock()
	g.items = items
	g.mu.Unlock()
}

// fetch answers with the list as it was when the request arrived.
func (g *gatedSource) fetch(ctx context.Context) ([]int, error) {
	g.calls.Add(1)
	g.mu.Lock()
	items := append([]int(nil), g.items...)
	g.mu.Unlock()
	g.started <- struct{}{}
	select {
	case <-g.release:
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitStarted(t *testing.T, g *gatedSource) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}
}

func TestListView_RefreshWhileLoadingIsNotLost(t *testing.T) {
	src := newGatedSource(1)
	v := dashboard.NewListView(src.fetch)
	t.Cleanup(v.Close)

	v.Invalidate()
	waitStarted(t, src)
	assert.True(t, v.Loading())

	// A new order lands while the first fetch is in flight.
	src.set(1, 2)
	v.Invalidate()
	v.Invalidate()

	src.release <- struct{}{}
	waitStarted(t, src)
	src.release <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, v.Wait(ctx))

	// The stale first answer is superseded by the follow-up fetch.
	assert.Equal(t, []int{1, 2}, v.Items())
	assert.Equal(t, int32(2), src.calls.Load(), "queued refreshes fold into one fetch")
	assert.False(t, v.Loading())
}

func TestListView_RefreshJoinsRunningFetch(t *testing.T) {
	src := newGatedSource(7)
	v := dashboard.NewListView(src.fetch)
	t.Cleanup(v.Close)

	var changes atomic.Int32
	v.OnChange(func([]int) { changes.Add(1) })

	v.Invalidate()
	waitStarted(t, src)

	done := make(chan error, 1)
	go func() { done <- v.Refresh(context.Background()) }()

	src.release <- struct{}{}
	waitStarted(t, src)
	src.release <- struct{}{}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return")
	}
	assert.Equal(t, []int{7}, v.Items())
	assert.Equal(t, int32(2), changes.Load())
}

func TestListView_CancelledRefreshKeepsQueuedFetch(t *testing.T) {
	src := newGatedSource(1)
	v := dashboard.NewListView(src.fetch)
	t.Cleanup(v.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Refresh(ctx) }()
	waitStarted(t, src)

	// An assignment arrives mid-load, then the caller that started the
	// load gives up.
	src.set(1, 2)
	v.Invalidate()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not return after cancel")
	}

	src.release <- struct{}{}
	waitStarted(t, src)
	src.release <- struct{}{}

	wait, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	require.NoError(t, v.Wait(wait))
	assert.Equal(t, []int{1, 2}, v.Items())
	assert.NoError(t, v.Err())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestListView_FailedFetchKeepsItems(t *testing.T) {
	boom := errors.New("backend down")
	var fail atomic.Bool
	v := dashboard.NewListView(func(context.Context) ([]string, error) {
		if fail.Load() {
			return nil, boom
		}
		return []string{"a"}, nil
	})
	t.Cleanup(v.Close)

	require.NoError(t, v.Refresh(context.Background()))
	fail.Store(true)
	assert.ErrorIs(t, v.Refresh(context.Background()), boom)
	assert.Equal(t, []string{"a"}, v.Items())
	assert.ErrorIs(t, v.Err(), boom)
}

func TestListView_CloseDiscardsLateResults(t *testing.T) {
	src := newGatedSource(1)
	v := dashboard.NewListView(src.fetch)

	v.Invalidate()
	waitStarted(t, src)
	v.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, v.Wait(ctx))
	assert.Empty(t, v.Items())

	assert.ErrorIs(t, v.Refresh(context.Background()), dashboard.ErrViewClosed)
	v.Invalidate()
	assert.Equal(t, int32(1), src.calls.Load())
}
