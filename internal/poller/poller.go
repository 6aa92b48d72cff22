// Package poller runs a fetch operation at a fixed interval until stopped.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is used when Start is given a non-positive interval.
const DefaultInterval = 5 * time.Second

// FetchFunc performs one observation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Handle controls a running poll loop. The zero value and nil are valid,
// already-stopped handles.
type Handle struct {
	once    sync.Once
	cancel  context.CancelFunc
	done    <-chan struct{}
	stopped atomic.Bool
}

// Start calls fetch once immediately and then once per interval until the returned
// handle is stopped or ctx is done. Each fetch runs in its own goroutine, so a slow
// response does not delay the next tick and responses may resolve out of order.
// onResult and onError may be nil. No delivery starts after Stop, and the
// callbacks may call Stop themselves.
func Start[T any](ctx context.Context, fetch FetchFunc[T], interval time.Duration, onResult func(T), onError func(error)) *Handle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: ctx.Done()}

	run := func() {
		v, err := fetch(ctx)
		if h.stopped.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onResult != nil {
			onResult(v)
		}
	}

	go run()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				go run()
			}
		}
	}()
	return h
}

// Stop ends the poll loop. In-flight fetches are cancelled and their results
// discarded. Stop is idempotent.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.stopped.Store(true)
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// Running reports whether the loop is still active.
func (h *Handle) Running() bool {
	if h == nil || h.cancel == nil {
		return false
	}
	if h.stopped.Load() {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}
