package notification

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context) ([]*Notification, error)
	Put(ctx context.Context, notification *Notification) error
	Delete(ctx context.Context, id string) error
}
