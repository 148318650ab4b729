package dashboard

import (
	"context"
	"sync"
)

// Fetcher loads one complete list from the backend.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// ListView owns one dashboard list. At most one fetch runs at a time; a
// refresh requested meanwhile is folded into exactly one more fetch after
// the running one, so no request is dropped and the last completed fetch is
// what the view shows.
type ListView[T any] struct {
	fetch    Fetcher[T]
	life     context.Context
	cancel   context.CancelFunc
	onChange func([]T)

	mu      sync.Mutex
	items   []T
	err     error
	loading bool
	dirty   bool
	closed  bool
	idle    chan struct{}
}

func NewListView[T any](fetch Fetcher[T]) *ListView[T] {
	life, cancel := context.WithCancel(context.Background())
	return &ListView[T]{fetch: fetch, life: life, cancel: cancel}
}

// OnChange registers fn to receive every successfully fetched list. Call it
// before the first refresh.
func (v *ListView[T]) OnChange(fn func([]T)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// begin claims the fetch loop. It reports false when a loop is already
// running, after marking it to go around once more.
func (v *ListView[T]) begin() (run bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false, ErrViewClosed
	}
	if v.loading {
		v.dirty = true
		return false, nil
	}
	v.loading = true
	v.idle = make(chan struct{})
	return true, nil
}

// Refresh fetches the list and waits until the view has settled. If a
// fetch is already running, the request is coalesced into it. ctx only
// bounds the wait; fetches run on the view's own context until Close.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	run, err := v.begin()
	if err != nil {
		return err
	}
	if run {
		go v.loop()
	}
	if err := v.Wait(ctx); err != nil {
		return err
	}
	return v.Err()
}

// Invalidate schedules a refresh without waiting for it. Live notification
// handlers use it.
func (v *ListView[T]) Invalidate() {
	run, err := v.begin()
	if err != nil || !run {
		return
	}
	go v.loop()
}

func (v *ListView[T]) loop() {
	for {
		items, err := v.fetch(v.life)

		v.mu.Lock()
		if v.closed {
			v.loading = false
			close(v.idle)
			v.mu.Unlock()
			return
		}
		if err == nil {
			v.items = items
		}
		v.err = err
		notify := v.onChange
		v.mu.Unlock()

		if err == nil && notify != nil {
			notify(items)
		}

		v.mu.Lock()
		if v.dirty {
			v.dirty = false
			v.mu.Unlock()
			continue
		}
		v.loading = false
		close(v.idle)
		v.mu.Unlock()
		return
	}
}

// Wait blocks until no fetch is running.
func (v *ListView[T]) Wait(ctx context.Context) error {
	v.mu.Lock()
	if !v.loading {
		v.mu.Unlock()
		return nil
	}
	idle := v.idle
	v.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items returns a copy of the last fetched list.
func (v *ListView[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]T(nil), v.items...)
}

// Err is the outcome of the last fetch.
func (v *ListView[T]) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *ListView[T]) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Close abandons any running or queued fetch. Results that arrive later
// are discarded.
func (v *ListView[T]) Close() {
	v.mu.Lock()
	v.closed = true
	v.dirty = false
	v.mu.Unlock()
	v.cancel()
}
