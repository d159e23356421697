package pushsubscription

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Subscription is one browser push endpoint registered by the
// dashboard. AgentName scopes it to an agent's own notifications;
// empty means the subscriber wants everything.
type Subscription struct {
	ID        string    `yaml:"id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	AgentName string    `yaml:"agent_name,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

func New(endpoint, p256dhKey, authKey, agentName string) *Subscription {
	return &Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  endpoint,
		P256dhKey: p256dhKey,
		AuthKey:   authKey,
		AgentName: agentName,
		CreatedAt: time.Now(),
	}
}
