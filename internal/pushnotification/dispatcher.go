package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/internal/task"
)

// Dispatcher turns notification rows into web push deliveries. It
// tails the event bus so push stays decoupled from the services that
// create notifications.
type Dispatcher struct {
	eventBus         *eventbus.Bus
	notificationRepo notification.Repository
	agentRepo        agent.Repository
	taskRepo         task.Repository
	sender           *Sender
}

func NewDispatcher(
	eventBus *eventbus.Bus,
	notificationRepo notification.Repository,
	agentRepo agent.Repository,
	taskRepo task.Repository,
	sender *Sender,
) *Dispatcher {
	return &Dispatcher{
		eventBus:         eventBus,
		notificationRepo: notificationRepo,
		agentRepo:        agentRepo,
		taskRepo:         taskRepo,
		sender:           sender,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.TypeNotificationCreated {
				d.handleNotificationCreated(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleNotificationCreated(ctx context.Context, event *eventbus.Event) {
	n, err := d.notificationRepo.Get(ctx, event.ResourceID)
	if err != nil {
		slog.Error("push dispatcher: failed to get notification", "id", event.ResourceID, "error", err)
		return
	}

	title := "Mission Control"
	var agentName string
	if a, err := d.agentRepo.Get(ctx, n.MentionedAgentID); err == nil {
		agentName = a.Name
		title = fmt.Sprintf("Mission Control: %s", a.Name)
	}

	var url string
	if n.TaskID != "" {
		if t, err := d.taskRepo.Get(ctx, n.TaskID); err == nil {
			url = fmt.Sprintf("/tasks/%s", t.ID)
		}
	}

	d.sender.Send(ctx, agentName, &Payload{
		Title: title,
		Body:  n.Content,
		URL:   url,
		Tag:   n.ID,
	})
}
