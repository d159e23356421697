package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

const agentsPrefix = "agents"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func key(id string) string {
	return fmt.Sprintf("%s/%s.yaml", agentsPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*agent.Agent, error) {
	data, err := r.storage.Read(ctx, key(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("agent", err)
	}
	var a agent.Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal agent: %w", err))
	}
	return &a, nil
}

func (r *YAMLRepository) GetByName(ctx context.Context, name string) (*agent.Agent, error) {
	agents, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("agent %q not found", name), nil)
}

func (r *YAMLRepository) List(ctx context.Context) ([]*agent.Agent, error) {
	rows, err := r.storage.ReadAll(ctx, agentsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("agent", err)
	}
	agents := make([]*agent.Agent, 0, len(rows))
	for _, data := range rows {
		var a agent.Agent
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal agent: %w", err))
		}
		agents = append(agents, &a)
	}
	return agents, nil
}

func (r *YAMLRepository) Put(ctx context.Context, a *agent.Agent) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal agent: %w", err))
	}
	if err := r.storage.Write(ctx, key(a.ID), data); err != nil {
		return cerr.WrapStorageWriteError("agent", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, key(id)); err != nil {
		return cerr.WrapStorageDeleteError("agent", err)
	}
	return nil
}
