package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/usage"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const usagePrefix = "usage"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", usagePrefix, id)
}

func (r *YAMLRepository) List(ctx context.Context) ([]*usage.Usage, error) {
	rows, err := r.storage.ReadAll(ctx, usagePrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("usage", err)
	}
	records := make([]*usage.Usage, 0, len(rows))
	for _, data := range rows {
		var u usage.Usage
		if err := yaml.Unmarshal(data, &u); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal usage: %w", err))
		}
		records = append(records, &u)
	}
	return records, nil
}

func (r *YAMLRepository) Put(ctx context.Context, u *usage.Usage) error {
	data, err := yaml.Marshal(u)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal usage: %w", err))
	}
	if err := r.storage.Write(ctx, key(u.ID), data); err != nil {
		return cerr.WrapStorageWriteError("usage", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("usage", err)
	}
	return nil
}
