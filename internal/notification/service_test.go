package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/internal/notification/repositoryimpl"
	"github.com/missionhq/missionctl/pkg/cerr"
	"github.com/missionhq/missionctl/pkg/storage"
)

type fakeResolver struct {
	agents map[string]*notification.AgentInfo
}

func (r *fakeResolver) AgentByID(_ context.Context, id string) (*notification.AgentInfo, bool, error) {
	info, ok := r.agents[id]
	return info, ok, nil
}

func (r *fakeResolver) AgentByName(_ context.Context, name string) (*notification.AgentInfo, bool, error) {
	for _, info := range r.agents {
		if info.Name == name {
			return info, true, nil
		}
	}
	return nil, false, nil
}

func newService(t *testing.T) (*notification.Service, *eventbus.Bus) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	resolver := &fakeResolver{agents: map[string]*notification.AgentInfo{
		"ag1": {ID: "ag1", Name: "ana", SessionKey: "sess-ana"},
		"ag2": {ID: "ag2", Name: "bob"},
	}}
	bus := eventbus.New()
	return notification.NewService(repositoryimpl.NewYAMLRepository(store), resolver, bus), bus
}

func TestCreatePublishesEvent(t *testing.T) {
	svc, bus := newService(t)
	ctx := context.Background()

	_, ch := bus.Subscribe(4)

	n, err := svc.Create(ctx, "ag1", "ag2", "t1", `bob mencionou você: "oi"`)
	require.NoError(t, err)
	require.False(t, n.Delivered)

	event := <-ch
	require.Equal(t, eventbus.TypeNotificationCreated, event.Type)
	require.Equal(t, n.ID, event.ResourceID)
	require.Equal(t, "ag1", event.Metadata["agentId"])
}

func TestCreateByNameUnknownRecipient(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateByName(context.Background(), "ghost", "", "", "hi")
	require.Error(t, err)
	require.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestCreateByNameUnresolvableSenderIsAnonymous(t *testing.T) {
	svc, _ := newService(t)

	n, err := svc.CreateByName(context.Background(), "ana", "human", "", "hi")
	require.NoError(t, err)
	require.Equal(t, "ag1", n.MentionedAgentID)
	require.Empty(t, n.FromAgentID)
}

func TestGetUndeliveredFiltersByAgentAndDelivery(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "ag1", "", "", "one")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ag1", "", "", "two")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ag2", "", "", "three")
	require.NoError(t, err)

	require.NoError(t, svc.MarkDelivered(ctx, first.ID))

	pending, err := svc.GetUndelivered(ctx, "ana")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "two", pending[0].Content)

	none, err := svc.GetUndelivered(ctx, "ghost")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetAllUndeliveredEnriches(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "ag1", "", "", "one")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "ag2", "", "", "two")
	require.NoError(t, err)

	pending, err := svc.GetAllUndelivered(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "ana", pending[0].AgentName)
	require.Equal(t, "sess-ana", pending[0].SessionKey)
	require.Equal(t, "bob", pending[1].AgentName)
	require.Empty(t, pending[1].SessionKey)
}

func TestMarkDeliveredUnknown(t *testing.T) {
	svc, _ := newService(t)

	err := svc.MarkDelivered(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, cerr.IsCode(err, cerr.NotFound))
}
