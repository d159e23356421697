package notification

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Notification is a pending ping for one agent. Delivered flips once
// the agent's client acknowledges it.
type Notification struct {
	ID               string    `yaml:"id" json:"id"`
	MentionedAgentID string    `yaml:"mentionedAgentId" json:"mentionedAgentId"`
	FromAgentID      string    `yaml:"fromAgentId,omitempty" json:"fromAgentId,omitempty"`
	TaskID           string    `yaml:"taskId,omitempty" json:"taskId,omitempty"`
	Content          string    `yaml:"content" json:"content"`
	Delivered        bool      `yaml:"delivered" json:"delivered"`
	CreatedAt        time.Time `yaml:"createdAt" json:"createdAt"`
}

func New(mentionedAgentID, fromAgentID, taskID, content string) *Notification {
	return &Notification{
		ID:               ulid.Make().String(),
		MentionedAgentID: mentionedAgentID,
		FromAgentID:      fromAgentID,
		TaskID:           taskID,
		Content:          content,
		CreatedAt:        time.Now(),
	}
}
