package metric

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Metric, error)
	Put(ctx context.Context, metric *Metric) error
	Delete(ctx context.Context, id string) error
}
