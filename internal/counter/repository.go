package counter

import "context"

type Repository interface {
	// Get returns cerr.NotFound when the counter has never been written.
	Get(ctx context.Context, name string) (*Counter, error)
	Put(ctx context.Context, c *Counter) error
}
