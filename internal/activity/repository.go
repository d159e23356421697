package activity

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Activity, error)
	List(ctx context.Context) ([]*Activity, error)
	Put(ctx context.Context, activity *Activity) error
	Delete(ctx context.Context, id string) error
}
