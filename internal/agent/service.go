package agent

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// TasksByStatus mirrors the board columns the dashboard charts.
type TasksByStatus struct {
	Inbox      int `json:"inbox"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
}

// Stats is the dashboard headline block.
type Stats struct {
	TotalAgents   int           `json:"totalAgents"`
	ActiveAgents  int           `json:"activeAgents"`
	WorkingAgents int           `json:"workingAgents"`
	TotalTasks    int           `json:"totalTasks"`
	TasksByStatus TasksByStatus `json:"tasksByStatus"`
}

// RegisterInput carries the agent profile to upsert.
type RegisterInput struct {
	Name       string
	Role       string
	Emoji      string
	Level      Level
	Avatar     string
	SessionKey string
}

type Service struct {
	repo       Repository
	tasks      task.Repository
	activities *activity.Service
	bus        *eventbus.Bus
}

func NewService(repo Repository, tasks task.Repository, activities *activity.Service, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, tasks: tasks, activities: activities, bus: bus}
}

// Register upserts an agent by name. Re-registering an existing agent
// refreshes its profile and resets it to idle without losing counters.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Agent, error) {
	if in.Name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}

	existing, err := s.repo.GetByName(ctx, in.Name)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}

	if existing != nil {
		existing.Role = in.Role
		existing.Emoji = in.Emoji
		existing.Level = in.Level
		existing.Avatar = in.Avatar
		existing.SessionKey = in.SessionKey
		existing.Status = StatusIdle
		existing.Touch()
		if err := s.repo.Put(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	a := New(in.Name, in.Role, in.Emoji, in.Level)
	a.Avatar = in.Avatar
	a.SessionKey = in.SessionKey
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GoOnline brings an agent back to idle. The online activity fires
// only on an actual offline to idle transition.
func (s *Service) GoOnline(ctx context.Context, name string) (*Agent, error) {
	a, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	wasOffline := a.Status == StatusOffline
	a.Status = StatusIdle
	a.Touch()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	if wasOffline {
		if _, err := s.activities.Log(ctx, activity.TypeAgentOnline, a.ID, "",
			fmt.Sprintf("%s is now online", name), nil); err != nil {
			return nil, err
		}
		s.bus.PublishNew(eventbus.TypeAgentStatusChanged, a.ID, string(StatusIdle), nil)
	}
	return a, nil
}

// GoOffline marks an agent offline, dropping any claimed task pointer.
func (s *Service) GoOffline(ctx context.Context, name string) (*Agent, error) {
	a, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	a.Status = StatusOffline
	a.CurrentTaskID = ""
	a.Touch()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	if _, err := s.activities.Log(ctx, activity.TypeAgentOffline, a.ID, "",
		fmt.Sprintf("%s went offline", name), nil); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.TypeAgentStatusChanged, a.ID, string(StatusOffline), nil)
	return a, nil
}

// ClaimTask moves a task to in_progress and the agent to working in
// one step. There is no guard against claiming an already-claimed
// task; the last claim wins.
func (s *Service) ClaimTask(ctx context.Context, agentName, taskID string) (*Agent, error) {
	a, err := s.repo.GetByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t.Status = task.StatusInProgress
	t.StartedAt = &now
	t.Touch()
	if err := s.tasks.Put(ctx, t); err != nil {
		return nil, err
	}

	a.Status = StatusWorking
	a.CurrentTaskID = taskID
	a.Touch()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	if _, err := s.activities.Log(ctx, activity.TypeTaskStarted, a.ID, taskID,
		fmt.Sprintf("%s started working on %q", agentName, t.Title), nil); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.TypeTaskStatusChanged, taskID, string(task.StatusInProgress), nil)
	return a, nil
}

// CompleteTask finishes the agent's task, lands it on done or review,
// and credits the agent's completion counter.
func (s *Service) CompleteTask(ctx context.Context, agentName, taskID string, moveToReview bool) (*Agent, error) {
	a, err := s.repo.GetByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newStatus := task.StatusDone
	if moveToReview {
		newStatus = task.StatusReview
	}

	actualMinutes := 0
	if t.StartedAt != nil {
		actualMinutes = int(math.Round(now.Sub(*t.StartedAt).Minutes()))
		t.ActualMinutes = actualMinutes
	}
	t.Status = newStatus
	t.CompletedAt = &now
	t.Touch()
	if err := s.tasks.Put(ctx, t); err != nil {
		return nil, err
	}

	a.Status = StatusIdle
	a.CurrentTaskID = ""
	a.TasksCompleted++
	a.Touch()
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	var metadata *activity.Metadata
	if t.StartedAt != nil {
		metadata = activity.DurationMetadata(actualMinutes)
	}
	if _, err := s.activities.Log(ctx, activity.TypeTaskCompleted, a.ID, taskID,
		fmt.Sprintf("%s completed %q", agentName, t.Title), metadata); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.TypeTaskStatusChanged, taskID, string(newStatus), nil)
	return a, nil
}

// Heartbeat bumps LastSeen and optionally flips working/idle. An
// unknown agent is ignored so stale clients do not error endlessly.
func (s *Service) Heartbeat(ctx context.Context, name string, isWorking *bool) error {
	a, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil
		}
		return err
	}

	if isWorking != nil {
		if *isWorking {
			a.Status = StatusWorking
		} else {
			a.Status = StatusIdle
		}
	}
	a.Touch()
	return s.repo.Put(ctx, a)
}

func (s *Service) GetByName(ctx context.Context, name string) (*Agent, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]*Agent, error) {
	return s.repo.List(ctx)
}

// GetActive returns every agent that is not offline.
func (s *Service) GetActive(ctx context.Context) ([]*Agent, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*Agent, 0, len(agents))
	for _, a := range agents {
		if a.Status != StatusOffline {
			active = append(active, a)
		}
	}
	return active, nil
}

// Stats aggregates agent and task counts for the dashboard header.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalAgents: len(agents), TotalTasks: len(tasks)}
	for _, a := range agents {
		if a.Status != StatusOffline {
			stats.ActiveAgents++
		}
		if a.Status == StatusWorking {
			stats.WorkingAgents++
		}
	}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusInbox:
			stats.TasksByStatus.Inbox++
		case task.StatusAssigned:
			stats.TasksByStatus.Assigned++
		case task.StatusInProgress:
			stats.TasksByStatus.InProgress++
		case task.StatusReview:
			stats.TasksByStatus.Review++
		case task.StatusDone:
			stats.TasksByStatus.Done++
		}
	}
	return stats, nil
}

// Remove deletes an agent by name.
func (s *Service) Remove(ctx context.Context, name string) error {
	a, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, a.ID)
}
