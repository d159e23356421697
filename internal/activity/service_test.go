package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/activity/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/storage"
)

type fakeResolver struct {
	agents map[string]*activity.AgentInfo // keyed by ID
	tasks  map[string]string
}

func (r *fakeResolver) AgentByID(_ context.Context, id string) (*activity.AgentInfo, bool, error) {
	info, ok := r.agents[id]
	return info, ok, nil
}

func (r *fakeResolver) AgentByName(_ context.Context, name string) (*activity.AgentInfo, bool, error) {
	for _, info := range r.agents {
		if info.Name == name {
			return info, true, nil
		}
	}
	return nil, false, nil
}

func (r *fakeResolver) TaskTitle(_ context.Context, id string) (string, bool, error) {
	title, ok := r.tasks[id]
	return title, ok, nil
}

func newService(t *testing.T) (*activity.Service, *fakeResolver) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	resolver := &fakeResolver{
		agents: map[string]*activity.AgentInfo{
			"ag1": {ID: "ag1", Name: "ana", Emoji: "🤖"},
			"ag2": {ID: "ag2", Name: "bob", Emoji: "🦊"},
		},
		tasks: map[string]string{"t1": "Ship the release"},
	}
	return activity.NewService(repositoryimpl.NewYAMLRepository(store), resolver), resolver
}

func TestListNewestFirstEnriched(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, activity.TypeTaskCreated, "ag1", "t1", `Task created: "Ship the release"`, nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeAgentOnline, "ag2", "", "bob is now online", nil)
	require.NoError(t, err)

	entries, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, activity.TypeAgentOnline, entries[0].Type)
	require.Equal(t, "bob", entries[0].AgentName)
	require.Equal(t, "🦊", entries[0].AgentEmoji)

	require.Equal(t, activity.TypeTaskCreated, entries[1].Type)
	require.Equal(t, "ana", entries[1].AgentName)
	require.Equal(t, "Ship the release", entries[1].TaskTitle)
}

func TestListLimitDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		_, err := svc.Log(ctx, activity.TypeTaskUpdated, "", "", "tick", nil)
		require.NoError(t, err)
	}

	entries, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 50)
}

func TestListByTypeCategories(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, activity.TypeTaskCreated, "", "", "a", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeTaskCommented, "", "", "b", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeAgentOnline, "", "", "c", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeTaskUpdated, "", "", "d", nil)
	require.NoError(t, err)

	tasks, err := svc.ListByType(ctx, "tasks", 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, activity.TypeTaskCreated, tasks[0].Type)

	// task_updated counts as a status change, not a task event.
	status, err := svc.ListByType(ctx, "status", 10)
	require.NoError(t, err)
	require.Len(t, status, 2)

	unknown, err := svc.ListByType(ctx, "nope", 10)
	require.NoError(t, err)
	require.Empty(t, unknown)
}

func TestListByAgent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, activity.TypeTaskStarted, "ag1", "t1", "x", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeTaskStarted, "ag2", "t1", "y", nil)
	require.NoError(t, err)

	entries, err := svc.ListByAgent(ctx, "ana", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ag1", entries[0].AgentID)

	none, err := svc.ListByAgent(ctx, "ghost", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLogByNameUnknownAgentStillLogs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.LogByName(ctx, "custom_event", "ghost", "", "hello", nil)
	require.NoError(t, err)
	require.Empty(t, a.AgentID)
	require.Equal(t, "custom_event", a.Type)
}

func TestCounts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, activity.TypeTaskCreated, "", "", "a", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeTaskCompleted, "", "", "b", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeDecisionMade, "", "", "c", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, "custom_event", "", "", "d", nil)
	require.NoError(t, err)

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, counts["total"])
	require.Equal(t, 2, counts["tasks"])
	require.Equal(t, 1, counts["decisions"])
	require.Equal(t, 0, counts["comments"])
}

func TestAgentActivityCounts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Log(ctx, activity.TypeTaskStarted, "ag2", "", "x", nil)
		require.NoError(t, err)
	}
	_, err := svc.Log(ctx, activity.TypeTaskStarted, "ag1", "", "x", nil)
	require.NoError(t, err)
	_, err = svc.Log(ctx, activity.TypeTaskUpdated, "", "", "unattributed", nil)
	require.NoError(t, err)

	counts, err := svc.AgentActivityCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, "ag2", counts[0].AgentID)
	require.Equal(t, "bob", counts[0].AgentName)
	require.Equal(t, 3, counts[0].Count)
	require.Equal(t, 1, counts[1].Count)
}

func TestDeleteOlderThan(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Log(ctx, activity.TypeTaskCreated, "", "", "old", nil)
	require.NoError(t, err)

	deleted, err := svc.DeleteOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	entries, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}
