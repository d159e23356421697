package task

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusInbox      Status = "inbox"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ValidStatus reports whether s is one of the board columns.
func ValidStatus(s Status) bool {
	switch s {
	case StatusInbox, StatusAssigned, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type DeliverableType string

const (
	DeliverableFile  DeliverableType = "file"
	DeliverableLink  DeliverableType = "link"
	DeliverableSheet DeliverableType = "sheet"
	DeliverableDoc   DeliverableType = "doc"
	DeliverableOther DeliverableType = "other"
)

// Deliverable is an artifact attached to a task, identified by URL.
type Deliverable struct {
	Title   string          `yaml:"title" json:"title"`
	URL     string          `yaml:"url" json:"url"`
	Type    DeliverableType `yaml:"type" json:"type"`
	AddedBy string          `yaml:"addedBy,omitempty" json:"addedBy,omitempty"`
	AddedAt time.Time       `yaml:"addedAt" json:"addedAt"`
}

// Task is one Kanban card. TaskNumber is the human-facing sequential
// ID; the ULID stays internal.
type Task struct {
	ID               string         `yaml:"id" json:"id"`
	TaskNumber       int64          `yaml:"taskNumber" json:"taskNumber"`
	Title            string         `yaml:"title" json:"title"`
	Description      string         `yaml:"description,omitempty" json:"description,omitempty"`
	Status           Status         `yaml:"status" json:"status"`
	Priority         Priority       `yaml:"priority" json:"priority"`
	AssigneeIDs      []string       `yaml:"assigneeIds,omitempty" json:"assigneeIds,omitempty"`
	Tags             []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedBy        string         `yaml:"createdBy,omitempty" json:"createdBy,omitempty"`
	EstimatedMinutes int            `yaml:"estimatedMinutes,omitempty" json:"estimatedMinutes,omitempty"`
	ActualMinutes    int            `yaml:"actualMinutes,omitempty" json:"actualMinutes,omitempty"`
	Deliverables     []*Deliverable `yaml:"deliverables,omitempty" json:"deliverables,omitempty"`
	AssignedAt       *time.Time     `yaml:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	StartedAt        *time.Time     `yaml:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt      *time.Time     `yaml:"completedAt,omitempty" json:"completedAt,omitempty"`
	NotionID         string         `yaml:"notionId,omitempty" json:"notionId,omitempty"`
	CreatedAt        time.Time      `yaml:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time      `yaml:"updatedAt" json:"updatedAt"`
}

func New(number int64, title string) *Task {
	now := time.Now()
	return &Task{
		ID:         ulid.Make().String(),
		TaskNumber: number,
		Title:      title,
		Status:     StatusInbox,
		Priority:   PriorityMedium,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch bumps UpdatedAt. Every mutation goes through it.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now()
}
