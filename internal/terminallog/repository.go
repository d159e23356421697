package terminallog

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Log, error)
	Put(ctx context.Context, log *Log) error
	Delete(ctx context.Context, id string) error
}
