package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/terminallog"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const logsPrefix = "terminallogs"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", logsPrefix, id)
}

func (r *YAMLRepository) List(ctx context.Context) ([]*terminallog.Log, error) {
	rows, err := r.storage.ReadAll(ctx, logsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("terminal log", err)
	}
	logs := make([]*terminallog.Log, 0, len(rows))
	for _, data := range rows {
		var l terminallog.Log
		if err := yaml.Unmarshal(data, &l); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal terminal log: %w", err))
		}
		logs = append(logs, &l)
	}
	return logs, nil
}

func (r *YAMLRepository) Put(ctx context.Context, l *terminallog.Log) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal terminal log: %w", err))
	}
	if err := r.storage.Write(ctx, key(l.ID), data); err != nil {
		return cerr.WrapStorageWriteError("terminal log", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("terminal log", err)
	}
	return nil
}
