package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(8)
	defer bus.Unsubscribe(id)

	bus.PublishNew(TypeTaskCreated, "task-1", "", map[string]string{"title": "demo"})

	select {
	case event := <-ch:
		if event.Type != TypeTaskCreated {
			t.Errorf("event type = %s, want %s", event.Type, TypeTaskCreated)
		}
		if event.ResourceID != "task-1" {
			t.Errorf("resource id = %s, want task-1", event.ResourceID)
		}
		if event.ID == "" {
			t.Error("event id is empty")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestFullSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := New()
	id, _ := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	done := make(chan struct{})
	go func() {
		// Second publish would block forever if drops weren't in place.
		bus.PublishNew(TypeTaskCreated, "a", "", nil)
		bus.PublishNew(TypeTaskCreated, "b", "", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
}
