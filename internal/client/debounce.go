package client

import (
	"sync"
	"time"
)

// Debouncer delays fn until Call has not been invoked for wait, then runs it
// with the last value passed.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

func Debounce[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		stale := gen != d.gen
		d.mu.Unlock()
		if !stale {
			d.fn(v)
		}
	})
}

// Stop drops the pending call, if any.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
