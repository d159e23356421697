package message

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	Put(ctx context.Context, message *Message) error
	Delete(ctx context.Context, id string) error
}
