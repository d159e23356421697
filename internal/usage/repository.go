package usage

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Usage, error)
	Put(ctx context.Context, usage *Usage) error
	Delete(ctx context.Context, id string) error
}
