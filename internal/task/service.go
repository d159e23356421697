package task

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/counter"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/pkg/cerr"
)

const detailActivityLimit = 50

// Assignee is the agent shape embedded in board and detail responses.
type Assignee struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji,omitempty"`
	Status string `json:"status,omitempty"`
}

// AgentResolver resolves agent references without this package owning
// the agent store. Implemented by an adapter wired in main.
type AgentResolver interface {
	ResolveByName(ctx context.Context, name string) (*Assignee, bool, error)
	ResolveByID(ctx context.Context, id string) (*Assignee, bool, error)
}

// Comment is a task-scoped message as shown in the detail view.
type Comment struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agentId,omitempty"`
	SenderName string    `json:"senderName,omitempty"`
	AgentName  string    `json:"agentName,omitempty"`
	AgentEmoji string    `json:"agentEmoji,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessageStore is the slice of the message service tasks need for
// comments. Implemented by an adapter wired in main.
type MessageStore interface {
	AppendComment(ctx context.Context, taskID, agentID, senderName, content string) error
	CommentsByTask(ctx context.Context, taskID string) ([]*Comment, error)
}

// Enriched is a task with its assignees resolved for display.
type Enriched struct {
	*Task
	Assignees []*Assignee `json:"assignees"`
}

// Detail is the full drill-down view of one task.
type Detail struct {
	*Task
	Assignees  []*Assignee       `json:"assignees"`
	Creator    *Assignee         `json:"creator,omitempty"`
	Activities []*activity.Entry `json:"activities"`
	Comments   []*Comment        `json:"comments"`
}

// Board is the Kanban partition of all tasks, recomputed per call.
type Board struct {
	Inbox      []*Enriched `json:"inbox"`
	Assigned   []*Enriched `json:"assigned"`
	InProgress []*Enriched `json:"in_progress"`
	Review     []*Enriched `json:"review"`
	Done       []*Enriched `json:"done"`
	Blocked    []*Enriched `json:"blocked"`
}

// CreateInput carries the optional fields of Create.
type CreateInput struct {
	Title            string
	Description      string
	Priority         Priority
	AssigneeNames    []string
	Tags             []string
	CreatedByName    string
	EstimatedMinutes int
}

type Service struct {
	repo          Repository
	counters      *counter.Service
	activities    *activity.Service
	notifications *notification.Service
	resolver      AgentResolver
	messages      MessageStore
	bus           *eventbus.Bus
}

func NewService(
	repo Repository,
	counters *counter.Service,
	activities *activity.Service,
	notifications *notification.Service,
	resolver AgentResolver,
	messages MessageStore,
	bus *eventbus.Bus,
) *Service {
	return &Service{
		repo:          repo,
		counters:      counters,
		activities:    activities,
		notifications: notifications,
		resolver:      resolver,
		messages:      messages,
		bus:           bus,
	}
}

// Create inserts a new task. Unresolvable assignee names are dropped
// silently; any resolved assignee moves the task straight to assigned.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Task, error) {
	if in.Title == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "title is required", nil)
	}

	assignees, err := s.resolveNames(ctx, in.AssigneeNames)
	if err != nil {
		return nil, err
	}

	var createdBy string
	if in.CreatedByName != "" {
		if creator, ok, err := s.resolver.ResolveByName(ctx, in.CreatedByName); err != nil {
			return nil, err
		} else if ok {
			createdBy = creator.ID
		}
	}

	number, err := s.counters.Next(ctx, counter.NameTasks)
	if err != nil {
		return nil, err
	}

	t := New(number, in.Title)
	t.Description = in.Description
	if in.Priority != "" {
		t.Priority = in.Priority
	}
	t.Tags = in.Tags
	t.CreatedBy = createdBy
	t.EstimatedMinutes = in.EstimatedMinutes
	for _, a := range assignees {
		t.AssigneeIDs = append(t.AssigneeIDs, a.ID)
	}
	if len(assignees) > 0 {
		t.Status = StatusAssigned
		now := time.Now()
		t.AssignedAt = &now
	}

	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}

	if _, err := s.activities.Log(ctx, activity.TypeTaskCreated, createdBy, t.ID,
		fmt.Sprintf("Task created: %q", t.Title), nil); err != nil {
		return nil, err
	}
	for _, a := range assignees {
		if _, err := s.activities.Log(ctx, activity.TypeTaskAssigned, a.ID, t.ID,
			fmt.Sprintf("%s was assigned to %q", a.Name, t.Title), nil); err != nil {
			return nil, err
		}
	}

	s.bus.PublishNew(eventbus.TypeTaskCreated, t.ID, t.Title, nil)
	return t, nil
}

// UpdateStatus moves a task across the board. Lifecycle timestamps are
// stamped on first reach only, and ActualMinutes is derived from
// StartedAt when the task first lands on done.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, agentName string) (*Task, error) {
	if !ValidStatus(status) {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", status), nil)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t.Status = status
	switch status {
	case StatusAssigned:
		if t.AssignedAt == nil {
			t.AssignedAt = &now
		}
	case StatusInProgress:
		if t.StartedAt == nil {
			t.StartedAt = &now
		}
	case StatusDone:
		if t.CompletedAt == nil {
			t.CompletedAt = &now
			if t.StartedAt != nil {
				t.ActualMinutes = minutesBetween(*t.StartedAt, now)
			}
		}
	}
	t.Touch()

	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}

	var agentID string
	if agentName != "" {
		if agent, ok, err := s.resolver.ResolveByName(ctx, agentName); err != nil {
			return nil, err
		} else if ok {
			agentID = agent.ID
		}
	}
	activityType := activity.TypeTaskUpdated
	if status == StatusDone {
		activityType = activity.TypeTaskCompleted
	}
	if _, err := s.activities.Log(ctx, activityType, agentID, t.ID,
		fmt.Sprintf("%q moved to %s", t.Title, strings.Replace(string(status), "_", " ", 1)), nil); err != nil {
		return nil, err
	}

	s.bus.PublishNew(eventbus.TypeTaskStatusChanged, t.ID, string(status), nil)
	return t, nil
}

// Assign replaces the assignee list wholesale and forces the task to
// assigned. Each resolved assignee gets an activity and a notification.
func (s *Service) Assign(ctx context.Context, id string, assigneeNames []string) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assignees, err := s.resolveNames(ctx, assigneeNames)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t.AssigneeIDs = t.AssigneeIDs[:0]
	for _, a := range assignees {
		t.AssigneeIDs = append(t.AssigneeIDs, a.ID)
	}
	t.Status = StatusAssigned
	t.AssignedAt = &now
	t.Touch()

	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}

	for _, a := range assignees {
		if _, err := s.activities.Log(ctx, activity.TypeTaskAssigned, a.ID, t.ID,
			fmt.Sprintf("%s was assigned to %q", a.Name, t.Title), nil); err != nil {
			return nil, err
		}
		if _, err := s.notifications.Create(ctx, a.ID, "", t.ID,
			fmt.Sprintf("You were assigned to: %s", t.Title)); err != nil {
			return nil, err
		}
	}

	s.bus.PublishNew(eventbus.TypeTaskAssigned, t.ID, t.Title, nil)
	return t, nil
}

// AddComment appends a comment message to a task and logs it with a
// 100-character preview. The display name prefers the resolved agent.
func (s *Service) AddComment(ctx context.Context, taskID, agentName, senderName, content string) error {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}

	var agentID string
	displayName := senderName
	if displayName == "" {
		displayName = "Unknown"
	}
	if agentName != "" {
		if agent, ok, err := s.resolver.ResolveByName(ctx, agentName); err != nil {
			return err
		} else if ok {
			agentID = agent.ID
			displayName = agent.Name
		}
	}

	if err := s.messages.AppendComment(ctx, taskID, agentID, senderName, content); err != nil {
		return err
	}

	preview := content
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100])
	}
	_, err = s.activities.Log(ctx, activity.TypeTaskCommented, agentID, taskID,
		fmt.Sprintf("%s commented on %q", displayName, t.Title),
		activity.PreviewMetadata(preview))
	return err
}

// AddDeliverable appends an artifact to a task. Type defaults to link.
func (s *Service) AddDeliverable(ctx context.Context, taskID, title, url string, dtype DeliverableType, addedByName string) (*Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if dtype == "" {
		dtype = DeliverableLink
	}
	t.Deliverables = append(t.Deliverables, &Deliverable{
		Title:   title,
		URL:     url,
		Type:    dtype,
		AddedBy: addedByName,
		AddedAt: time.Now(),
	})
	t.Touch()

	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	if _, err := s.activities.Log(ctx, activity.TypeTaskUpdated, "", taskID,
		fmt.Sprintf("Deliverable added to %q: %s", t.Title, title),
		activity.DeliverableMetadata(url)); err != nil {
		return nil, err
	}
	return t, nil
}

// RemoveDeliverable drops every deliverable matching the URL.
func (s *Service) RemoveDeliverable(ctx context.Context, taskID, url string) (*Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	kept := t.Deliverables[:0]
	for _, d := range t.Deliverables {
		if d.URL != url {
			kept = append(kept, d)
		}
	}
	t.Deliverables = kept
	t.Touch()
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateDescription replaces the description without logging activity.
func (s *Service) UpdateDescription(ctx context.Context, id, description string) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Description = description
	t.Touch()
	if err := s.repo.Put(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Remove deletes a task permanently.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns every task, newest first.
func (s *Service) List(ctx context.Context) ([]*Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	reverse(tasks)
	return tasks, nil
}

// ListByStatus returns the tasks in one board column, newest first.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*Task, 0)
	for _, t := range tasks {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	reverse(filtered)
	return filtered, nil
}

// ListByAgent returns the tasks assigned to an agent name, newest
// first. An unknown name yields an empty list.
func (s *Service) ListByAgent(ctx context.Context, agentName string) ([]*Task, error) {
	agent, ok, err := s.resolver.ResolveByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*Task{}, nil
	}
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*Task, 0)
	for _, t := range tasks {
		for _, id := range t.AssigneeIDs {
			if id == agent.ID {
				filtered = append(filtered, t)
				break
			}
		}
	}
	reverse(filtered)
	return filtered, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.Get(ctx, id)
}

// GetDetail joins a task with its assignees, creator, recent activity
// and comments.
func (s *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &Detail{Task: t, Assignees: []*Assignee{}, Comments: []*Comment{}}

	for _, assigneeID := range t.AssigneeIDs {
		if a, ok, err := s.resolver.ResolveByID(ctx, assigneeID); err != nil {
			return nil, err
		} else if ok {
			d.Assignees = append(d.Assignees, a)
		}
	}
	if t.CreatedBy != "" {
		if creator, ok, err := s.resolver.ResolveByID(ctx, t.CreatedBy); err != nil {
			return nil, err
		} else if ok {
			d.Creator = creator
		}
	}

	d.Activities, err = s.activities.ListByTask(ctx, id, detailActivityLimit)
	if err != nil {
		return nil, err
	}
	d.Comments, err = s.messages.CommentsByTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Kanban partitions every task by status with assignees resolved.
func (s *Service) Kanban(ctx context.Context) (*Board, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	board := &Board{
		Inbox:      []*Enriched{},
		Assigned:   []*Enriched{},
		InProgress: []*Enriched{},
		Review:     []*Enriched{},
		Done:       []*Enriched{},
		Blocked:    []*Enriched{},
	}
	for _, t := range tasks {
		e := &Enriched{Task: t, Assignees: []*Assignee{}}
		for _, id := range t.AssigneeIDs {
			if a, ok, err := s.resolver.ResolveByID(ctx, id); err != nil {
				return nil, err
			} else if ok {
				e.Assignees = append(e.Assignees, a)
			}
		}
		switch t.Status {
		case StatusInbox:
			board.Inbox = append(board.Inbox, e)
		case StatusAssigned:
			board.Assigned = append(board.Assigned, e)
		case StatusInProgress:
			board.InProgress = append(board.InProgress, e)
		case StatusReview:
			board.Review = append(board.Review, e)
		case StatusDone:
			board.Done = append(board.Done, e)
		case StatusBlocked:
			board.Blocked = append(board.Blocked, e)
		}
	}
	return board, nil
}

// FindByNumber looks a task up by its human-facing number.
func (s *Service) FindByNumber(ctx context.Context, number int64) (*Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		if t.TaskNumber == number {
			return t, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("task #%d not found", number), nil)
}

// FindByTitle returns the newest task whose title contains the query,
// case-insensitively.
func (s *Service) FindByTitle(ctx context.Context, query string) (*Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return t, nil
		}
	}
	return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("no task matching %q", query), nil)
}

func (s *Service) resolveNames(ctx context.Context, names []string) ([]*Assignee, error) {
	assignees := make([]*Assignee, 0, len(names))
	for _, name := range names {
		a, ok, err := s.resolver.ResolveByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			assignees = append(assignees, a)
		}
	}
	return assignees, nil
}

func minutesBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Minutes()))
}

func reverse(tasks []*Task) {
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
}
