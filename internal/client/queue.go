package client

import (
	"context"

	"golang.org/x/sync/semaphore"
)

const MaxConcurrent = 6

// Queue bounds the number of running requests. Waiters are admitted in arrival order.
type Queue struct {
	sem *semaphore.Weighted
	max int64
}

func NewQueue(max int) *Queue {
	if max <= 0 {
		max = MaxConcurrent
	}
	return &Queue{sem: semaphore.NewWeighted(int64(max)), max: int64(max)}
}

// Do waits for a slot, runs task and frees the slot however task ends.
// A caller whose ctx ends while waiting leaves without taking a slot.
func (q *Queue) Do(ctx context.Context, task func(ctx context.Context) error) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return cancelled(err)
	}
	defer q.sem.Release(1)

	return task(ctx)
}

func (q *Queue) Limit() int { return int(q.max) }
