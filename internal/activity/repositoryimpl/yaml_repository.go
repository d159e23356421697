package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const activitiesPrefix = "activities"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", activitiesPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*activity.Activity, error) {
	data, err := r.storage.Read(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("activity", err)
	}
	var a activity.Activity
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal activity: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*activity.Activity, error) {
	rows, err := r.storage.ReadAll(ctx, activitiesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("activity", err)
	}
	activities := make([]*activity.Activity, 0, len(rows))
	for _, data := range rows {
		var a activity.Activity
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal activity: %w", err))
		}
		activities = append(activities, &a)
	}
	return activities, nil
}

func (r *YAMLRepository) Put(ctx context.Context, a *activity.Activity) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal activity: %w", err))
	}
	if err := r.storage.Write(ctx, key(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("activity", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("activity", err)
	}
	return nil
}
