package task_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/activity"
	activityrepo "github.com/missionhq/missionctl/internal/activity/repositoryimpl"
	"github.com/missionhq/missionctl/internal/counter"
	counterrepo "github.com/missionhq/missionctl/internal/counter/repositoryimpl"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notification"
	notificationrepo "github.com/missionhq/missionctl/internal/notification/repositoryimpl"
	"github.com/missionhq/missionctl/internal/task"
	taskrepo "github.com/missionhq/missionctl/internal/task/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

type fakeResolver struct {
	agents map[string]*task.Assignee
}

func (r *fakeResolver) ResolveByName(_ context.Context, name string) (*task.Assignee, bool, error) {
	for _, a := range r.agents {
		if a.Name == name {
			return a, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeResolver) ResolveByID(_ context.Context, id string) (*task.Assignee, bool, error) {
	a, ok := r.agents[id]
	return a, ok, nil
}

type notificationResolver struct{ inner *fakeResolver }

func (r *notificationResolver) AgentByID(ctx context.Context, id string) (*notification.AgentInfo, bool, error) {
	a, ok, err := r.inner.ResolveByID(ctx, id)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name}, true, nil
}

func (r *notificationResolver) AgentByName(ctx context.Context, name string) (*notification.AgentInfo, bool, error) {
	a, ok, err := r.inner.ResolveByName(ctx, name)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name}, true, nil
}

type activityResolver struct{ inner *fakeResolver }

func (r *activityResolver) AgentByID(ctx context.Context, id string) (*activity.AgentInfo, bool, error) {
	a, ok, err := r.inner.ResolveByID(ctx, id)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (r *activityResolver) AgentByName(ctx context.Context, name string) (*activity.AgentInfo, bool, error) {
	a, ok, err := r.inner.ResolveByName(ctx, name)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (r *activityResolver) TaskTitle(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type memMessages struct {
	comments []*task.Comment
}

func (m *memMessages) AppendComment(_ context.Context, taskID, agentID, senderName, content string) error {
	m.comments = append(m.comments, &task.Comment{
		ID:         fmt.Sprintf("m%d", len(m.comments)+1),
		AgentID:    agentID,
		SenderName: senderName,
		Content:    content,
	})
	return nil
}

func (m *memMessages) CommentsByTask(context.Context, string) ([]*task.Comment, error) {
	return m.comments, nil
}

type fixture struct {
	tasks         *task.Service
	activities    *activity.Service
	notifications *notification.Service
	messages      *memMessages
	bus           *eventbus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	resolver := &fakeResolver{agents: map[string]*task.Assignee{
		"ag1": {ID: "ag1", Name: "ana", Emoji: "🤖"},
		"ag2": {ID: "ag2", Name: "bob", Emoji: "🦊"},
	}}
	bus := eventbus.New()
	counters := counter.NewService(counterrepo.NewYAMLRepository(store))
	activities := activity.NewService(activityrepo.NewYAMLRepository(store), &activityResolver{resolver})
	notifications := notification.NewService(notificationrepo.NewYAMLRepository(store), &notificationResolver{resolver}, bus)
	messages := &memMessages{}

	return &fixture{
		tasks: task.NewService(taskrepo.NewYAMLRepository(store), counters, activities,
			notifications, resolver, messages, bus),
		activities:    activities,
		notifications: notifications,
		messages:      messages,
		bus:           bus,
	}
}

func TestCreateNumbersSequentially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tasks.Create(ctx, task.CreateInput{Title: "first"})
	require.NoError(t, err)
	second, err := f.tasks.Create(ctx, task.CreateInput{Title: "second"})
	require.NoError(t, err)

	require.EqualValues(t, 1, first.TaskNumber)
	require.EqualValues(t, 2, second.TaskNumber)
	require.Equal(t, task.StatusInbox, first.Status)
	require.Equal(t, task.PriorityMedium, first.Priority)
}

func TestCreateWithAssignees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{
		Title:         "Ship it",
		AssigneeNames: []string{"ana", "ghost", "bob"},
		CreatedByName: "ana",
	})
	require.NoError(t, err)

	// Unresolvable names are dropped without error.
	require.Equal(t, []string{"ag1", "ag2"}, created.AssigneeIDs)
	require.Equal(t, task.StatusAssigned, created.Status)
	require.NotNil(t, created.AssignedAt)
	require.Equal(t, "ag1", created.CreatedBy)

	entries, err := f.activities.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, activity.TypeTaskAssigned, entries[0].Type)
	require.Equal(t, `bob was assigned to "Ship it"`, entries[0].Message)
	require.Equal(t, activity.TypeTaskCreated, entries[2].Type)
	require.Equal(t, `Task created: "Ship it"`, entries[2].Message)
}

func TestCreateRequiresTitle(t *testing.T) {
	f := newFixture(t)

	_, err := f.tasks.Create(context.Background(), task.CreateInput{})
	require.Error(t, err)
	require.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestUpdateStatusStampsLifecycleOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "work"})
	require.NoError(t, err)

	started, err := f.tasks.UpdateStatus(ctx, created.ID, task.StatusInProgress, "ana")
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)
	firstStart := *started.StartedAt

	// A round trip through blocked must not restamp StartedAt.
	_, err = f.tasks.UpdateStatus(ctx, created.ID, task.StatusBlocked, "")
	require.NoError(t, err)
	again, err := f.tasks.UpdateStatus(ctx, created.ID, task.StatusInProgress, "")
	require.NoError(t, err)
	require.Equal(t, firstStart, *again.StartedAt)

	done, err := f.tasks.UpdateStatus(ctx, created.ID, task.StatusDone, "ana")
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)

	entries, err := f.activities.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, activity.TypeTaskCompleted, entries[0].Type)
	require.Equal(t, `"work" moved to done`, entries[0].Message)
}

func TestUpdateStatusUnderscoreDisplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "work"})
	require.NoError(t, err)
	_, err = f.tasks.UpdateStatus(ctx, created.ID, task.StatusInProgress, "")
	require.NoError(t, err)

	entries, err := f.activities.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, `"work" moved to in progress`, entries[0].Message)
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "work"})
	require.NoError(t, err)

	_, err = f.tasks.UpdateStatus(ctx, created.ID, task.Status("archived"), "")
	require.True(t, cerr.IsCode(err, cerr.InvalidArgument))

	_, err = f.tasks.UpdateStatus(ctx, "missing", task.StatusDone, "")
	require.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestAssignReplacesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "handoff", AssigneeNames: []string{"ana"}})
	require.NoError(t, err)

	assigned, err := f.tasks.Assign(ctx, created.ID, []string{"bob"})
	require.NoError(t, err)
	require.Equal(t, []string{"ag2"}, assigned.AssigneeIDs)
	require.Equal(t, task.StatusAssigned, assigned.Status)

	pending, err := f.notifications.GetUndelivered(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "You were assigned to: handoff", pending[0].Content)
}

func TestAddCommentLogsPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "chatty"})
	require.NoError(t, err)

	long := strings.Repeat("x", 140)
	require.NoError(t, f.tasks.AddComment(ctx, created.ID, "ana", "", long))

	require.Len(t, f.messages.comments, 1)
	require.Equal(t, "ag1", f.messages.comments[0].AgentID)

	entries, err := f.activities.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, activity.TypeTaskCommented, entries[0].Type)
	require.Equal(t, `ana commented on "chatty"`, entries[0].Message)
	require.Equal(t, strings.Repeat("x", 100), entries[0].Metadata.Preview)
}

func TestDeliverableLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "artifacts"})
	require.NoError(t, err)

	withOne, err := f.tasks.AddDeliverable(ctx, created.ID, "report", "https://x/report", "", "ana")
	require.NoError(t, err)
	require.Len(t, withOne.Deliverables, 1)
	require.Equal(t, task.DeliverableLink, withOne.Deliverables[0].Type)

	_, err = f.tasks.AddDeliverable(ctx, created.ID, "sheet", "https://x/sheet", task.DeliverableSheet, "")
	require.NoError(t, err)

	after, err := f.tasks.RemoveDeliverable(ctx, created.ID, "https://x/report")
	require.NoError(t, err)
	require.Len(t, after.Deliverables, 1)
	require.Equal(t, "https://x/sheet", after.Deliverables[0].URL)
}

func TestListOrderingAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.tasks.Create(ctx, task.CreateInput{Title: "older"})
	require.NoError(t, err)
	newer, err := f.tasks.Create(ctx, task.CreateInput{Title: "newer", AssigneeNames: []string{"ana"}})
	require.NoError(t, err)

	all, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Equal(t, newer.ID, all[0].ID)
	require.Equal(t, older.ID, all[1].ID)

	inbox, err := f.tasks.ListByStatus(ctx, task.StatusInbox)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, older.ID, inbox[0].ID)

	mine, err := f.tasks.ListByAgent(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, newer.ID, mine[0].ID)

	none, err := f.tasks.ListByAgent(ctx, "ghost")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetDetailJoins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{
		Title:         "detailed",
		AssigneeNames: []string{"bob"},
		CreatedByName: "ana",
	})
	require.NoError(t, err)
	require.NoError(t, f.tasks.AddComment(ctx, created.ID, "bob", "", "looking"))

	detail, err := f.tasks.GetDetail(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Assignees, 1)
	require.Equal(t, "bob", detail.Assignees[0].Name)
	require.NotNil(t, detail.Creator)
	require.Equal(t, "ana", detail.Creator.Name)
	require.Len(t, detail.Comments, 1)
	require.NotEmpty(t, detail.Activities)
}

func TestKanbanPartition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tasks.Create(ctx, task.CreateInput{Title: "waiting"})
	require.NoError(t, err)
	assigned, err := f.tasks.Create(ctx, task.CreateInput{Title: "taken", AssigneeNames: []string{"ana"}})
	require.NoError(t, err)
	_, err = f.tasks.UpdateStatus(ctx, assigned.ID, task.StatusInProgress, "ana")
	require.NoError(t, err)

	board, err := f.tasks.Kanban(ctx)
	require.NoError(t, err)
	require.Len(t, board.Inbox, 1)
	require.Len(t, board.InProgress, 1)
	require.Empty(t, board.Assigned)
	require.Len(t, board.InProgress[0].Assignees, 1)
	require.Equal(t, "ana", board.InProgress[0].Assignees[0].Name)
}

func TestFindByNumberAndTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tasks.Create(ctx, task.CreateInput{Title: "Deploy API gateway"})
	require.NoError(t, err)

	byNumber, err := f.tasks.FindByNumber(ctx, created.TaskNumber)
	require.NoError(t, err)
	require.Equal(t, created.ID, byNumber.ID)

	byTitle, err := f.tasks.FindByTitle(ctx, "api GATEWAY")
	require.NoError(t, err)
	require.Equal(t, created.ID, byTitle.ID)

	_, err = f.tasks.FindByNumber(ctx, 999)
	require.True(t, cerr.IsCode(err, cerr.NotFound))

	_, err = f.tasks.FindByTitle(ctx, "nonexistent")
	require.True(t, cerr.IsCode(err, cerr.NotFound))
}
