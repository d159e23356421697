package message

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TypeComment      Type = "comment"
	TypeDecision     Type = "decision"
	TypeStatusUpdate Type = "status_update"
	TypeChat         Type = "chat"
)

// Message is a comment on a task or, with no TaskID, a general chat
// line. AgentID identifies agent senders; SenderName covers humans.
type Message struct {
	ID          string    `yaml:"id" json:"id"`
	TaskID      string    `yaml:"taskId,omitempty" json:"taskId,omitempty"`
	AgentID     string    `yaml:"agentId,omitempty" json:"agentId,omitempty"`
	SenderName  string    `yaml:"senderName,omitempty" json:"senderName,omitempty"`
	Content     string    `yaml:"content" json:"content"`
	Type        Type      `yaml:"type" json:"type"`
	Attachments []string  `yaml:"attachments,omitempty" json:"attachments,omitempty"`
	CreatedAt   time.Time `yaml:"createdAt" json:"createdAt"`
}

func New(taskID, agentID, senderName, content string, messageType Type) *Message {
	return &Message{
		ID:         ulid.Make().String(),
		TaskID:     taskID,
		AgentID:    agentID,
		SenderName: senderName,
		Content:    content,
		Type:       messageType,
		CreatedAt:  time.Now(),
	}
}
