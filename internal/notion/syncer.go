package notion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/counter"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/panicerr"
)

// Result reports one sync pass. Success means neither source errored;
// a failed source never blocks the other one.
type Result struct {
	Success       bool     `json:"success"`
	TasksUpdated  int      `json:"tasksUpdated"`
	AgentsUpdated int      `json:"agentsUpdated"`
	Errors        []string `json:"errors"`
}

// Syncer pulls the remote task and agent boards and reconciles them
// into local storage. The remote side is the source of truth for task
// content and agent presence; agents are never created remotely.
type Syncer struct {
	client    *Client
	taskRepo  task.Repository
	agentRepo agent.Repository
	counters  *counter.Service
	bus       *eventbus.Bus
}

func NewSyncer(client *Client, taskRepo task.Repository, agentRepo agent.Repository, counters *counter.Service, bus *eventbus.Bus) *Syncer {
	return &Syncer{
		client:    client,
		taskRepo:  taskRepo,
		agentRepo: agentRepo,
		counters:  counters,
		bus:       bus,
	}
}

// Run performs one full sync pass. The two database fetches run in
// parallel and each failure is captured into Result.Errors.
func (s *Syncer) Run(ctx context.Context) *Result {
	result := &Result{Errors: []string{}}

	var (
		tasksUpdated, agentsUpdated int
		tasksErr, agentsErr         error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		tasksUpdated, tasksErr = s.syncTasks(ctx)
	})
	wg.Go(func() {
		agentsUpdated, agentsErr = s.syncAgents(ctx)
	})
	if recovered := wg.WaitAndRecover(); recovered != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("sync panic: %v", recovered.Value))
	}

	result.TasksUpdated = tasksUpdated
	result.AgentsUpdated = agentsUpdated
	if tasksErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Tasks sync error: %s", tasksErr))
	}
	if agentsErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Agents sync error: %s", agentsErr))
	}
	result.Success = len(result.Errors) == 0

	s.bus.PublishNew(eventbus.TypeSyncCompleted, "", fmt.Sprintf("%d tasks, %d agents", tasksUpdated, agentsUpdated), nil)
	return result
}

func (s *Syncer) syncTasks(ctx context.Context) (int, error) {
	remote, err := s.client.FetchTasks(ctx)
	if err != nil {
		return 0, err
	}

	existing, err := s.taskRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	byNumber := make(map[int64]*task.Task, len(existing))
	for _, t := range existing {
		if _, ok := byNumber[t.TaskNumber]; !ok {
			byNumber[t.TaskNumber] = t
		}
	}

	updated := 0
	for _, rt := range remote {
		assigneeIDs, err := s.resolveAssignee(ctx, rt.Assignee)
		if err != nil {
			return updated, err
		}

		if local, ok := byNumber[rt.TaskNumber]; ok {
			changed, err := s.patchTask(ctx, local, rt, assigneeIDs)
			if err != nil {
				return updated, err
			}
			if changed {
				updated++
			}
			continue
		}

		if _, err := s.counters.Raise(ctx, counter.NameTasks, rt.TaskNumber); err != nil {
			return updated, err
		}
		t := task.New(rt.TaskNumber, rt.Title)
		t.Description = rt.Description
		t.Status = rt.Status
		t.Priority = rt.Priority
		t.AssigneeIDs = assigneeIDs
		t.Tags = rt.Tags
		t.NotionID = rt.PageID
		if err := s.taskRepo.Put(ctx, t); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// patchTask applies a remote row to a local task. Only title,
// description, status and priority differences count as a change;
// status changes stamp StartedAt/CompletedAt on first reach.
func (s *Syncer) patchTask(ctx context.Context, local *task.Task, rt *RemoteTask, assigneeIDs []string) (bool, error) {
	statusChanged := local.Status != rt.Status
	changed := statusChanged ||
		local.Title != rt.Title ||
		local.Description != rt.Description ||
		local.Priority != rt.Priority
	if !changed {
		return false, nil
	}

	now := time.Now()
	local.Title = rt.Title
	local.Description = rt.Description
	local.Priority = rt.Priority
	local.AssigneeIDs = assigneeIDs
	local.Tags = rt.Tags
	local.NotionID = rt.PageID
	if statusChanged {
		local.Status = rt.Status
		if rt.Status == task.StatusInProgress && local.StartedAt == nil {
			local.StartedAt = &now
		}
		if rt.Status == task.StatusDone && local.CompletedAt == nil {
			local.CompletedAt = &now
		}
	}
	local.Touch()
	if err := s.taskRepo.Put(ctx, local); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Syncer) resolveAssignee(ctx context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}
	a, err := s.agentRepo.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []string{a.ID}, nil
}

// syncAgents reconciles presence only. Agents unknown locally are
// skipped; registration happens through the API, never through sync.
func (s *Syncer) syncAgents(ctx context.Context) (int, error) {
	remote, err := s.client.FetchAgents(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, ra := range remote {
		local, err := s.agentRepo.GetByName(ctx, ra.Name)
		if err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				continue
			}
			return updated, err
		}
		if local.Status == ra.Status {
			continue
		}
		local.Status = ra.Status
		local.NotionID = ra.PageID
		local.Touch()
		if err := s.agentRepo.Put(ctx, local); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// Runner triggers sync passes on a fixed cadence. Passes never
// overlap; a slow pass simply delays the next tick.
type Runner struct {
	syncer   *Syncer
	counters *counter.Service
	interval time.Duration
}

func NewRunner(syncer *Syncer, counters *counter.Service, interval time.Duration) *Runner {
	return &Runner{syncer: syncer, counters: counters, interval: interval}
}

func (r *Runner) Start(ctx context.Context) {
	slog.Info("notion sync runner started", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("notion sync runner stopped")
			return
		case <-ticker.C:
			if err := panicerr.SafeContext(func(ctx context.Context) error {
				r.runOnce(ctx)
				return nil
			})(ctx); err != nil {
				slog.Error("notion sync panicked", "error", err)
			}
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	result := r.syncer.Run(ctx)
	if !result.Success {
		slog.Error("notion sync failed", "errors", result.Errors)
		return
	}
	slog.Info("notion sync complete", "tasks", result.TasksUpdated, "agents", result.AgentsUpdated)
	if err := r.counters.Set(ctx, counter.NameLastNotionSync, time.Now().UnixMilli()); err != nil {
		slog.Error("notion sync: failed to record last sync time", "error", err)
	}
}
