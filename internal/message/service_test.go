package message_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/activity"
	activityrepo "github.com/missionhq/missionctl/internal/activity/repositoryimpl"
	"github.com/missionhq/missionctl/internal/agent"
	agentrepo "github.com/missionhq/missionctl/internal/agent/repositoryimpl"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/message"
	messagerepo "github.com/missionhq/missionctl/internal/message/repositoryimpl"
	"github.com/missionhq/missionctl/internal/notification"
	notificationrepo "github.com/missionhq/missionctl/internal/notification/repositoryimpl"
	"github.com/missionhq/missionctl/internal/task"
	taskrepo "github.com/missionhq/missionctl/internal/task/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

type agentAdapter struct{ repo agent.Repository }

func (d *agentAdapter) lookupByName(ctx context.Context, name string) (*agent.Agent, bool, error) {
	a, err := d.repo.GetByName(ctx, name)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return a, true, nil
}

func (d *agentAdapter) lookupByID(ctx context.Context, id string) (*agent.Agent, bool, error) {
	a, err := d.repo.Get(ctx, id)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return a, true, nil
}

func (d *agentAdapter) AgentByID(ctx context.Context, id string) (*activity.AgentInfo, bool, error) {
	a, ok, err := d.lookupByID(ctx, id)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (d *agentAdapter) AgentByName(ctx context.Context, name string) (*activity.AgentInfo, bool, error) {
	a, ok, err := d.lookupByName(ctx, name)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &activity.AgentInfo{ID: a.ID, Name: a.Name, Emoji: a.Emoji}, true, nil
}

func (d *agentAdapter) TaskTitle(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type notifAdapter struct{ inner *agentAdapter }

func (d *notifAdapter) AgentByID(ctx context.Context, id string) (*notification.AgentInfo, bool, error) {
	a, ok, err := d.inner.lookupByID(ctx, id)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name, SessionKey: a.SessionKey}, true, nil
}

func (d *notifAdapter) AgentByName(ctx context.Context, name string) (*notification.AgentInfo, bool, error) {
	a, ok, err := d.inner.lookupByName(ctx, name)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &notification.AgentInfo{ID: a.ID, Name: a.Name, SessionKey: a.SessionKey}, true, nil
}

type fixture struct {
	messages      *message.Service
	notifications *notification.Service
	activities    *activity.Service
	agents        agent.Repository
	tasks         task.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	agents := agentrepo.NewYAMLRepository(store)
	tasks := taskrepo.NewYAMLRepository(store)
	adapter := &agentAdapter{repo: agents}
	bus := eventbus.New()
	activities := activity.NewService(activityrepo.NewYAMLRepository(store), adapter)
	notifications := notification.NewService(notificationrepo.NewYAMLRepository(store), &notifAdapter{adapter}, bus)

	return &fixture{
		messages: message.NewService(messagerepo.NewYAMLRepository(store),
			agents, tasks, activities, notifications, bus),
		notifications: notifications,
		activities:    activities,
		agents:        agents,
		tasks:         tasks,
	}
}

func (f *fixture) addAgent(t *testing.T, name, emoji string) *agent.Agent {
	t.Helper()
	a := agent.New(name, "engineer", emoji, agent.LevelSpecialist)
	require.NoError(t, f.agents.Put(context.Background(), a))
	return a
}

func (f *fixture) addTask(t *testing.T, title string, assigneeIDs ...string) *task.Task {
	t.Helper()
	tk := task.New(1, title)
	tk.AssigneeIDs = assigneeIDs
	require.NoError(t, f.tasks.Put(context.Background(), tk))
	return tk
}

func TestCreateRequiresSender(t *testing.T) {
	f := newFixture(t)

	_, err := f.messages.Create(context.Background(), message.CreateInput{Content: "hi"})
	require.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestCreateUnknownTask(t *testing.T) {
	f := newFixture(t)

	_, err := f.messages.Create(context.Background(), message.CreateInput{
		TaskID: "missing", SenderName: "Marcel", Content: "hi",
	})
	require.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestCreateNotifiesAssigneesExceptSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.addAgent(t, "ana", "🤖")
	bob := f.addAgent(t, "bob", "🦊")
	tk := f.addTask(t, "release", ana.ID, bob.ID)

	_, err := f.messages.Create(ctx, message.CreateInput{
		TaskID: tk.ID, AgentName: "ana", Content: "done with my part",
	})
	require.NoError(t, err)

	bobPending, err := f.notifications.GetUndelivered(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobPending, 1)
	require.Equal(t, `ana comentou: "done with my part"`, bobPending[0].Content)

	anaPending, err := f.notifications.GetUndelivered(ctx, "ana")
	require.NoError(t, err)
	require.Empty(t, anaPending)

	entries, err := f.activities.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, activity.TypeMessageSent, entries[0].Type)
	require.Equal(t, `ana comentou em "release"`, entries[0].Message)
}

func TestCreateMentionFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addAgent(t, "Ana", "🤖")
	f.addAgent(t, "bob", "🦊")

	// Mentions match case-insensitively and the sender never pings itself.
	_, err := f.messages.Create(ctx, message.CreateInput{
		AgentName: "bob", Content: "ping @ANA and @bob and @ghost",
	})
	require.NoError(t, err)

	anaPending, err := f.notifications.GetUndelivered(ctx, "Ana")
	require.NoError(t, err)
	require.Len(t, anaPending, 1)
	require.Equal(t, `bob mencionou você: "ping @ANA and @bob and @ghost"`, anaPending[0].Content)

	bobPending, err := f.notifications.GetUndelivered(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, bobPending)
}

func TestCreateAssigneeAndMentionBothNotify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.addAgent(t, "ana", "🤖")
	tk := f.addTask(t, "release", ana.ID)

	_, err := f.messages.Create(ctx, message.CreateInput{
		TaskID: tk.ID, SenderName: "Marcel", Content: "hey @ana please check",
	})
	require.NoError(t, err)

	pending, err := f.notifications.GetUndelivered(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, pending, 2)
}

func TestCreateTruncatesLongContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.addAgent(t, "ana", "🤖")
	tk := f.addTask(t, "release", ana.ID)

	long := strings.Repeat("é", 120)
	_, err := f.messages.Create(ctx, message.CreateInput{
		TaskID: tk.ID, SenderName: "Marcel", Content: long,
	})
	require.NoError(t, err)

	pending, err := f.notifications.GetUndelivered(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	want := `Marcel comentou: "` + strings.Repeat("é", 100) + `..."`
	require.Equal(t, want, pending[0].Content)
}

func TestChatActivityMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.messages.Create(ctx, message.CreateInput{SenderName: "Marcel", Content: "bom dia"})
	require.NoError(t, err)

	entries, err := f.activities.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Marcel enviou mensagem no chat", entries[0].Message)
}

func TestListByTaskAndChat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ana := f.addAgent(t, "ana", "🤖")
	tk := f.addTask(t, "release", ana.ID)

	_, err := f.messages.Create(ctx, message.CreateInput{TaskID: tk.ID, AgentName: "ana", Content: "first"})
	require.NoError(t, err)
	_, err = f.messages.Create(ctx, message.CreateInput{SenderName: "Marcel", Content: "chat line"})
	require.NoError(t, err)
	_, err = f.messages.Create(ctx, message.CreateInput{TaskID: tk.ID, SenderName: "Marcel", Content: "second"})
	require.NoError(t, err)

	taskMessages, err := f.messages.ListByTask(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, taskMessages, 2)
	require.Equal(t, "first", taskMessages[0].Content)
	require.Equal(t, "ana", taskMessages[0].AgentName)
	require.Equal(t, "🤖", taskMessages[0].AgentEmoji)
	require.Equal(t, "Marcel", taskMessages[1].AgentName)
	require.Equal(t, "👤", taskMessages[1].AgentEmoji)

	chat, err := f.messages.ListChat(ctx, 0)
	require.NoError(t, err)
	require.Len(t, chat, 1)
	require.Equal(t, "chat line", chat[0].Content)
	require.Equal(t, message.TypeChat, chat[0].Type)
}

func TestCommentsByTaskBridge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tk := f.addTask(t, "bridge")
	require.NoError(t, f.messages.AppendComment(ctx, tk.ID, "", "Marcel", "note"))

	comments, err := f.messages.CommentsByTask(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "Marcel", comments[0].AgentName)
	require.Equal(t, "note", comments[0].Content)
}
