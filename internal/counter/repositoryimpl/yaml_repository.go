package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/counter"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const countersPrefix = "counters"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(name string) string {
	return fmt.Sprintf("%s/%s.yaml", countersPrefix, name)
}

func (r *YAMLRepository) Get(ctx context.Context, name string) (*counter.Counter, error) {
	data, err := r.storage.Read(ctx, key(name))
	if err != nil {
		return nil, cerr.WrapStorageReadError("counter", err)
	}
	var c counter.Counter
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal counter: %w", err))
	}
	return &c, nil
}

func (r *YAMLRepository) Put(ctx context.Context, c *counter.Counter) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal counter: %w", err))
	}
	if err := r.storage.Write(ctx, key(c.Name), data); err != nil {
		return cerr.WrapStorageWriteError("counter", err)
	}
	return nil
}
