package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies what happened to which resource.
type Type string

const (
	TypeTaskCreated         Type = "task.created"
	TypeTaskStatusChanged   Type = "task.status_changed"
	TypeTaskAssigned        Type = "task.assigned"
	TypeAgentStatusChanged  Type = "agent.status_changed"
	TypeMessageCreated      Type = "message.created"
	TypeNotificationCreated Type = "notification.created"
	TypeSyncCompleted       Type = "sync.completed"
)

// Event is the in-process fan-out record published after a mutation.
type Event struct {
	ID         string
	Type       Type
	ResourceID string
	Payload    string
	Metadata   map[string]string
	CreatedAt  time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType Type, resourceID string, payload string, metadata map[string]string) {
	b.Publish(&Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		ResourceID: resourceID,
		Payload:    payload,
		Metadata:   metadata,
		CreatedAt:  time.Now(),
	})
}
