// Package directory adapts the agent and task repositories to the
// lookup interfaces the feed, notification, and task services declare.
// Keeping the adapters here lets those packages stay free of each
// other's imports.
package directory

import (
	"context"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// ActivityResolver implements activity.Resolver.
type ActivityResolver struct {
	agents agent.Repository
	tasks  task.Repository
}

var _ activity.Resolver = (*ActivityResolver)(nil)

func NewActivityResolver(agents agent.Repository, tasks task.Repository) *ActivityResolver {
	return &ActivityResolver{agents: agents, tasks: tasks}
}

func (r *ActivityResolver) AgentByID(ctx context.Context, id string) (*activity.AgentInfo, bool, error) {
	a, err := r.agents.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (r *ActivityResolver) AgentByName(ctx context.Context, name string) (*activity.AgentInfo, bool, error) {
	a, err := r.agents.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (r *ActivityResolver) TaskTitle(ctx context.Context, id string) (string, bool, error) {
	t, err := r.tasks.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return t.Title, true, nil
}

// NotificationResolver implements notification.AgentResolver.
type NotificationResolver struct {
	agents agent.Repository
}

var _ notification.AgentResolver = (*NotificationResolver)(nil)

func NewNotificationResolver(agents agent.Repository) *NotificationResolver {
	return &NotificationResolver{agents: agents}
}

func (r *NotificationResolver) AgentByID(ctx context.Context, id string) (*notification.AgentInfo, bool, error) {
	a, err := r.agents.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name, SessionKey: a.SessionKey}, true, nil
}

func (r *NotificationResolver) AgentByName(ctx context.Context, name string) (*notification.AgentInfo, bool, error) {
	a, err := r.agents.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name, SessionKey: a.SessionKey}, true, nil
}

// TaskResolver implements task.AgentResolver.
type TaskResolver struct {
	agents agent.Repository
}

var _ task.AgentResolver = (*TaskResolver)(nil)

func NewTaskResolver(agents agent.Repository) *TaskResolver {
	return &TaskResolver{agents: agents}
}

func (r *TaskResolver) ResolveByName(ctx context.Context, name string) (*task.Assignee, bool, error) {
	a, err := r.agents.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return assignee(a), true, nil
}

func (r *TaskResolver) ResolveByID(ctx context.Context, id string) (*task.Assignee, bool, error) {
	a, err := r.agents.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return assignee(a), true, nil
}

func assignee(a *agent.Agent) *task.Assignee {
	return &task.Assignee{ID: a.ID, Name: a.Name, Emoji: a.Emoji, Status: string(a.Status)}
}
