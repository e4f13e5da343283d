package client

import (
	"context"
	"sync"
	"time"
)

// BatchFunc resolves all items collected for one key in a single call.
// Items missing from the returned map resolve to the zero value of R.
type BatchFunc[K comparable, I comparable, R any] func(ctx context.Context, key K, items []I) (map[I]R, error)

// Result is delivered once per submitted item.
type Result[R any] struct {
	Value R
	Err   error
}

// Collector buffers items per key and flushes them as one batch call. Each
// submission restarts the key's window (a debounce), but a buffer is never
// held longer than maxWait after its first item.
type Collector[K comparable, I comparable, R any] struct {
	window  time.Duration
	maxWait time.Duration
	timeout time.Duration
	fn      BatchFunc[K, I, R]

	mu      sync.Mutex
	pending map[K]*batch[I, R]
}

type batch[I comparable, R any] struct {
	items    []I
	waiters  map[I][]chan Result[R]
	deadline time.Time
	timer    *time.Timer
}

// NewCollector returns a collector flushing after window of inactivity per
// key, or after maxWait at the latest. timeout bounds each batch call; zero
// means no bound.
func NewCollector[K comparable, I comparable, R any](window, maxWait, timeout time.Duration, fn BatchFunc[K, I, R]) *Collector[K, I, R] {
	if maxWait < window {
		maxWait = window
	}
	return &Collector[K, I, R]{
		window:  window,
		maxWait: maxWait,
		timeout: timeout,
		fn:      fn,
		pending: make(map[K]*batch[I, R]),
	}
}

// Submit adds item to the key's buffer. The returned channel receives exactly
// one Result. Duplicate items within a buffer share one slot in the batch call.
func (c *Collector[K, I, R]) Submit(key K, item I) <-chan Result[R] {
	ch := make(chan Result[R], 1)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.pending[key]
	if !ok {
		b = &batch[I, R]{
			waiters:  make(map[I][]chan Result[R]),
			deadline: now.Add(c.maxWait),
		}
		c.pending[key] = b
	} else {
		b.timer.Stop()
	}

	if _, seen := b.waiters[item]; !seen {
		b.items = append(b.items, item)
	}
	b.waiters[item] = append(b.waiters[item], ch)

	delay := c.window
	if remaining := b.deadline.Sub(now); remaining < delay {
		delay = remaining
	}
	b.timer = time.AfterFunc(delay, func() { c.flush(key, b) })
	return ch
}

// Do submits item and waits for its result or for ctx to end.
func (c *Collector[K, I, R]) Do(ctx context.Context, key K, item I) (R, error) {
	select {
	case res := <-c.Submit(key, item):
		return res.Value, res.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Pending returns the number of keys with buffered items.
func (c *Collector[K, I, R]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Collector[K, I, R]) flush(key K, b *batch[I, R]) {
	c.mu.Lock()
	if c.pending[key] != b {
		// Already flushed by an earlier timer of the same buffer.
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	c.mu.Unlock()

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	values, err := c.fn(ctx, key, b.items)
	for item, chans := range b.waiters {
		res := Result[R]{Err: err}
		if err == nil {
			res.Value = values[item]
		}
		for _, ch := range chans {
			ch <- res
		}
	}
}
