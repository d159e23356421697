package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/metric"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const metricsPrefix = "metrics"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", metricsPrefix, id)
}

func (r *YAMLRepository) List(ctx context.Context) ([]*metric.Metric, error) {
	rows, err := r.storage.ReadAll(ctx, metricsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("metric", err)
	}
	metrics := make([]*metric.Metric, 0, len(rows))
	for _, data := range rows {
		var m metric.Metric
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal metric: %w", err))
		}
		metrics = append(metrics, &m)
	}
	return metrics, nil
}

func (r *YAMLRepository) Put(ctx context.Context, m *metric.Metric) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal metric: %w", err))
	}
	if err := r.storage.Write(ctx, key(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("metric", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("metric", err)
	}
	return nil
}
