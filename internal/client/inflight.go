package client

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// InFlight shares one execution of a read among concurrent callers of the same key.
type InFlight struct {
	g singleflight.Group

	mu    sync.Mutex
	seq   uint64
	calls map[string]*call
}

type call struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Join runs fn once per key while a call is outstanding and hands every joiner
// the same bytes and error. The key is released as soon as fn returns.
//
// A joiner whose ctx ends returns ErrCancelled right away. The shared call keeps
// running while anyone else still waits on it and is cancelled once nobody does.
func (f *InFlight) Join(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]*call{}
	}
	c, ok := f.calls[key]
	if !ok {
		f.seq++
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call{id: key + "#" + strconv.FormatUint(f.seq, 10), ctx: sctx, cancel: cancel}
		f.calls[key] = c
	}
	c.waiters++
	// DoChan under mu: every joiner of c reaches singleflight before fn can release c.
	ch := f.g.DoChan(c.id, func() (any, error) {
		defer f.release(key, c)
		return fn(c.ctx)
	})
	f.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		f.leave(key, c)
		return nil, cancelled(ctx.Err())
	}
}

func (f *InFlight) release(key string, c *call) {
	f.mu.Lock()
	if f.calls[key] == c {
		delete(f.calls, key)
	}
	f.mu.Unlock()
	c.cancel()
}

func (f *InFlight) leave(key string, c *call) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c.waiters--
	if c.waiters > 0 {
		return
	}
	if f.calls[key] == c {
		delete(f.calls, key)
	}
	c.cancel()
}

// Forget detaches outstanding calls whose key contains pattern, or all of them
// when pattern is empty. Detached calls run to completion for their current
// joiners; the next Join of the key starts a new call.
func (f *InFlight) Forget(pattern string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for k := range f.calls {
		if pattern == "" || strings.Contains(k, pattern) {
			delete(f.calls, k)
			n++
		}
	}
	return n
}

// Len reports how many keys have an outstanding call.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
