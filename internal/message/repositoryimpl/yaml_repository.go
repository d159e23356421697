package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/message"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const messagesPrefix = "messages"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", messagesPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*message.Message, error) {
	data, err := r.storage.Read(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("message", err)
	}
	var m message.Message
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal message: %w", err))
	}
	return &m, nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*message.Message, error) {
	rows, err := r.storage.ReadAll(ctx, messagesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("message", err)
	}
	messages := make([]*message.Message, 0, len(rows))
	for _, data := range rows {
		var m message.Message
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal message: %w", err))
		}
		messages = append(messages, &m)
	}
	return messages, nil
}

func (r *YAMLRepository) Put(ctx context.Context, m *message.Message) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal message: %w", err))
	}
	if err := r.storage.Write(ctx, key(m.ID), data); err != nil {
		return cerr.WrapStorageWriteError("message", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("message", err)
	}
	return nil
}
