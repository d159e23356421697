package agent

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Agent, error)
	// GetByName returns the first agent with the given name in
	// creation order, or storage.ErrNotFound wrapped as cerr.NotFound.
	GetByName(ctx context.Context, name string) (*Agent, error)
	List(ctx context.Context) ([]*Agent, error)
	Put(ctx context.Context, agent *Agent) error
	Delete(ctx context.Context, id string) error
}
