package notion_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/agent"
	agentrepo "github.com/missionhq/missionctl/internal/agent/repositoryimpl"
	"github.com/missionhq/missionctl/internal/counter"
	counterrepo "github.com/missionhq/missionctl/internal/counter/repositoryimpl"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notion"
	"github.com/missionhq/missionctl/internal/task"
	taskrepo "github.com/missionhq/missionctl/internal/task/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/storage"
)

const (
	tasksDB  = "db-tasks"
	agentsDB = "db-agents"
)

func title(text string) map[string]any {
	return map[string]any{"title": []map[string]any{{"plain_text": text}}}
}

func richText(text string) map[string]any {
	return map[string]any{"rich_text": []map[string]any{{"plain_text": text}}}
}

func sel(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func multiSel(names ...string) map[string]any {
	opts := make([]map[string]any, 0, len(names))
	for _, n := range names {
		opts = append(opts, map[string]any{"name": n})
	}
	return map[string]any{"multi_select": opts}
}

func taskPage(pageID, idText, name, desc, status, priority, assignee string, tags ...string) map[string]any {
	props := map[string]any{
		"ID":          richText(idText),
		"Nome":        title(name),
		"Descrição":   richText(desc),
		"Status":      sel(status),
		"Prioridade":  sel(priority),
		"Responsável": sel(assignee),
		"Tags":        multiSel(tags...),
	}
	return map[string]any{"id": pageID, "properties": props}
}

func agentPage(pageID, name, status string) map[string]any {
	return map[string]any{"id": pageID, "properties": map[string]any{
		"Nome":   title(name),
		"Status": sel(status),
	}}
}

type fakeNotion struct {
	mu         sync.Mutex
	taskPages  []map[string]any
	agentPages []map[string]any
	failTasks  bool
	sawHeaders http.Header
}

func (f *fakeNotion) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.sawHeaders = r.Header.Clone()
		f.mu.Unlock()
		var pages []map[string]any
		switch r.URL.Path {
		case fmt.Sprintf("/v1/databases/%s/query", tasksDB):
			if f.failTasks {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			pages = f.taskPages
		case fmt.Sprintf("/v1/databases/%s/query", agentsDB):
			pages = f.agentPages
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": pages})
	})
}

type fixture struct {
	notionAPI *fakeNotion
	syncer    *notion.Syncer
	tasks     task.Repository
	agents    agent.Repository
	counters  *counter.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	api := &fakeNotion{}
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	tasks := taskrepo.NewYAMLRepository(store)
	agents := agentrepo.NewYAMLRepository(store)
	counters := counter.NewService(counterrepo.NewYAMLRepository(store))
	client := notion.NewClient("secret", tasksDB, agentsDB,
		notion.WithBaseURL(server.URL), notion.WithHTTPClient(server.Client()))

	return &fixture{
		notionAPI: api,
		syncer:    notion.NewSyncer(client, tasks, agents, counters, eventbus.New()),
		tasks:     tasks,
		agents:    agents,
		counters:  counters,
	}
}

func TestSyncCreatesTasksAndRaisesCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-1", "#014", "Deploy", "ship it", "In Progress", "Alta", "", "infra"),
		taskPage("pg-2", "no-number", "Skipped", "", "Inbox", "Baixa", ""),
	}

	result := f.syncer.Run(ctx)
	require.True(t, result.Success)
	require.Equal(t, 1, result.TasksUpdated)

	all, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	created := all[0]
	require.EqualValues(t, 14, created.TaskNumber)
	require.Equal(t, "Deploy", created.Title)
	require.Equal(t, task.StatusInProgress, created.Status)
	require.Equal(t, task.PriorityHigh, created.Priority)
	require.Equal(t, "pg-1", created.NotionID)
	require.Equal(t, []string{"infra"}, created.Tags)

	counterValue, err := f.counters.Get(ctx, counter.NameTasks)
	require.NoError(t, err)
	require.EqualValues(t, 14, counterValue)

	require.Equal(t, "Bearer secret", f.notionAPI.sawHeaders.Get("Authorization"))
	require.Equal(t, "2022-06-28", f.notionAPI.sawHeaders.Get("Notion-Version"))
}

func TestSyncPatchesOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := task.New(7, "Old title")
	require.NoError(t, f.tasks.Put(ctx, existing))

	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-7", "#7", "Old title", "", "Inbox", "Média", ""),
	}
	result := f.syncer.Run(ctx)
	require.True(t, result.Success)
	require.Zero(t, result.TasksUpdated)

	// A status flip counts as a change and stamps StartedAt once.
	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-7", "#7", "Old title", "", "In Progress", "Média", ""),
	}
	result = f.syncer.Run(ctx)
	require.Equal(t, 1, result.TasksUpdated)

	patched, err := f.tasks.Get(ctx, existing.ID)
	require.NoError(t, err)
	require.Equal(t, task.StatusInProgress, patched.Status)
	require.NotNil(t, patched.StartedAt)
	firstStart := *patched.StartedAt

	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-7", "#7", "New title", "", "In Progress", "Média", ""),
	}
	result = f.syncer.Run(ctx)
	require.Equal(t, 1, result.TasksUpdated)

	repatched, err := f.tasks.Get(ctx, existing.ID)
	require.NoError(t, err)
	require.Equal(t, "New title", repatched.Title)
	require.Equal(t, firstStart, *repatched.StartedAt)
}

func TestSyncResolvesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := agent.New("ana", "engineer", "🤖", agent.LevelSpecialist)
	require.NoError(t, f.agents.Put(ctx, ana))

	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-1", "#1", "Assigned remotely", "", "Assigned", "Média", "ana"),
		taskPage("pg-2", "#2", "Ghost assignee", "", "Inbox", "Média", "ghost"),
	}
	result := f.syncer.Run(ctx)
	require.True(t, result.Success)

	one, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, one, 2)
	byNumber := map[int64]*task.Task{}
	for _, tk := range one {
		byNumber[tk.TaskNumber] = tk
	}
	require.Equal(t, []string{ana.ID}, byNumber[1].AssigneeIDs)
	require.Empty(t, byNumber[2].AssigneeIDs)
}

func TestSyncAgentsReconcilesStatusOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bob := agent.New("bob", "engineer", "🦊", agent.LevelSpecialist)
	require.NoError(t, f.agents.Put(ctx, bob))

	f.notionAPI.agentPages = []map[string]any{
		agentPage("pg-b", "bob", "Working"),
		agentPage("pg-x", "stranger", "Online"),
	}
	result := f.syncer.Run(ctx)
	require.True(t, result.Success)
	require.Equal(t, 1, result.AgentsUpdated)

	updated, err := f.agents.GetByName(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, agent.StatusWorking, updated.Status)
	require.Equal(t, "pg-b", updated.NotionID)

	// Unknown remote agents never become local records.
	all, err := f.agents.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Same status again is a no-op.
	result = f.syncer.Run(ctx)
	require.Zero(t, result.AgentsUpdated)
}

func TestSyncPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bob := agent.New("bob", "engineer", "🦊", agent.LevelSpecialist)
	require.NoError(t, f.agents.Put(ctx, bob))

	f.notionAPI.failTasks = true
	f.notionAPI.agentPages = []map[string]any{agentPage("pg-b", "bob", "Working")}

	result := f.syncer.Run(ctx)
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "Tasks sync error")
	// The agents side still completed.
	require.Equal(t, 1, result.AgentsUpdated)
}

func TestSyncUnknownSelectFallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.notionAPI.taskPages = []map[string]any{
		taskPage("pg-1", "#3", "Odd values", "", "Someday", "Urgente", ""),
	}
	result := f.syncer.Run(ctx)
	require.True(t, result.Success)

	all, err := f.tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, task.StatusInbox, all[0].Status)
	require.Equal(t, task.PriorityMedium, all[0].Priority)
}
