package activity

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Well-known activity types. Log accepts free-form types as well, so
// callers are not limited to this list.
const (
	TypeTaskCreated     = "task_created"
	TypeTaskAssigned    = "task_assigned"
	TypeTaskStarted     = "task_started"
	TypeTaskCompleted   = "task_completed"
	TypeTaskUpdated     = "task_updated"
	TypeTaskCommented   = "task_commented"
	TypeMessageSent     = "message_sent"
	TypeAgentOnline     = "agent_online"
	TypeAgentOffline    = "agent_offline"
	TypeAgentWorking    = "agent_working"
	TypeDecisionMade    = "decision_made"
	TypeDocumentCreated = "document_created"
)

// MetadataKind tags the shape of an activity's Metadata payload.
type MetadataKind string

const (
	MetadataNone        MetadataKind = ""
	MetadataPreview     MetadataKind = "preview"
	MetadataDuration    MetadataKind = "duration"
	MetadataDeliverable MetadataKind = "deliverable"
	MetadataOpaque      MetadataKind = "opaque"
)

// Metadata is a tagged union. Kind selects which of the payload fields
// is meaningful; the rest stay zero.
type Metadata struct {
	Kind           MetadataKind   `yaml:"kind,omitempty" json:"kind,omitempty"`
	Preview        string         `yaml:"preview,omitempty" json:"preview,omitempty"`
	ActualMinutes  int            `yaml:"actualMinutes,omitempty" json:"actualMinutes,omitempty"`
	DeliverableRef string         `yaml:"deliverableRef,omitempty" json:"deliverableRef,omitempty"`
	Opaque         map[string]any `yaml:"opaque,omitempty" json:"opaque,omitempty"`
}

// PreviewMetadata builds a message-preview payload.
func PreviewMetadata(preview string) *Metadata {
	return &Metadata{Kind: MetadataPreview, Preview: preview}
}

// DurationMetadata records how long a task actually took.
func DurationMetadata(minutes int) *Metadata {
	return &Metadata{Kind: MetadataDuration, ActualMinutes: minutes}
}

// DeliverableMetadata points at a deliverable attached to a task.
func DeliverableMetadata(ref string) *Metadata {
	return &Metadata{Kind: MetadataDeliverable, DeliverableRef: ref}
}

// Activity is a single feed entry. AgentID and TaskID are optional.
type Activity struct {
	ID        string    `yaml:"id" json:"id"`
	Type      string    `yaml:"type" json:"type"`
	AgentID   string    `yaml:"agentId,omitempty" json:"agentId,omitempty"`
	TaskID    string    `yaml:"taskId,omitempty" json:"taskId,omitempty"`
	Message   string    `yaml:"message" json:"message"`
	Metadata  *Metadata `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time `yaml:"createdAt" json:"createdAt"`
}

// New creates an activity with a fresh ULID and the current time.
func New(activityType, agentID, taskID, message string, metadata *Metadata) *Activity {
	return &Activity{
		ID:        ulid.Make().String(),
		Type:      activityType,
		AgentID:   agentID,
		TaskID:    taskID,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
