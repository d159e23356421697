package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is the row store behind every repository: flat string keys,
// opaque values. Implementations must make Write atomic per key so that
// readers never observe a partially written row.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	// ReadAll returns the values of every key under prefix, ordered by
	// key ascending. Keys that disappear between listing and reading are
	// skipped rather than reported.
	ReadAll(ctx context.Context, prefix string) ([][]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
