package terminallog

import (
	"context"
	"fmt"
	"time"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/pkg/cerr"
)

const (
	defaultByAgentLimit = 100
	defaultRecentLimit  = 50
	retention           = 24 * time.Hour
)

type Service struct {
	repo   Repository
	agents agent.Repository
}

func NewService(repo Repository, agents agent.Repository) *Service {
	return &Service{repo: repo, agents: agents}
}

// Add appends a log line for an already-resolved agent ID.
func (s *Service) Add(ctx context.Context, agentID string, level Level, message, taskID string, metadata map[string]any) (*Log, error) {
	if !ValidLevel(level) {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid level %q", level), nil)
	}
	l := New(agentID, level, message)
	l.TaskID = taskID
	l.Metadata = metadata
	if err := s.repo.Put(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// AddByName resolves the agent by name first; unknown names fail.
func (s *Service) AddByName(ctx context.Context, agentName string, level Level, message, taskID string, metadata map[string]any) (*Log, error) {
	a, err := s.agents.GetByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	return s.Add(ctx, a.ID, level, message, taskID, metadata)
}

// ByAgent returns up to limit of an agent's latest lines, oldest
// first so a terminal can replay them top to bottom.
func (s *Service) ByAgent(ctx context.Context, agentID string, limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = defaultByAgentLimit
	}
	logs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]*Log, 0)
	for _, l := range logs {
		if l.AgentID == agentID {
			mine = append(mine, l)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

// Recent returns the latest lines across all agents, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Log, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	logs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	recent := make([]*Log, 0, limit)
	for i := len(logs) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, logs[i])
	}
	return recent, nil
}

// Cleanup drops lines older than 24 hours and returns the count.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	logs, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-retention)
	deleted := 0
	for _, l := range logs {
		if l.CreatedAt.Before(cutoff) {
			if err := s.repo.Delete(ctx, l.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
