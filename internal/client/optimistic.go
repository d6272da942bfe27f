package client

import "context"

// Optimistic applies a local change before remote runs and restores the prior
// snapshot when remote fails. The remote error is returned unchanged.
func Optimistic[S any](ctx context.Context, snapshot func() S, apply func(), restore func(S), remote func(ctx context.Context) error) error {
	prev := snapshot()
	apply()
	if err := remote(ctx); err != nil {
		restore(prev)
		return err
	}
	return nil
}
