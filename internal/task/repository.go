package task

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context) ([]*Task, error)
	Put(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
}
