package agent

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusOffline Status = "offline"
)

type Level string

const (
	LevelLead       Level = "lead"
	LevelSpecialist Level = "specialist"
	LevelIntern     Level = "intern"
)

// Agent is one registered teammate, human-operated or automated.
// Name is the unique lookup key used by every name-addressed API.
type Agent struct {
	ID              string    `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Role            string    `yaml:"role" json:"role"`
	Emoji           string    `yaml:"emoji" json:"emoji"`
	Avatar          string    `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	Status          Status    `yaml:"status" json:"status"`
	Level           Level     `yaml:"level" json:"level"`
	SessionKey      string    `yaml:"sessionKey,omitempty" json:"sessionKey,omitempty"`
	CurrentTaskID   string    `yaml:"currentTaskId,omitempty" json:"currentTaskId,omitempty"`
	LastSeen        time.Time `yaml:"lastSeen" json:"lastSeen"`
	TasksCompleted  int       `yaml:"tasksCompleted" json:"tasksCompleted"`
	TotalTokensUsed int64     `yaml:"totalTokensUsed" json:"totalTokensUsed"`
	NotionID        string    `yaml:"notionId,omitempty" json:"notionId,omitempty"`
	CreatedAt       time.Time `yaml:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `yaml:"updatedAt" json:"updatedAt"`
}

func New(name, role, emoji string, level Level) *Agent {
	now := time.Now()
	return &Agent{
		ID:        ulid.Make().String(),
		Name:      name,
		Role:      role,
		Emoji:     emoji,
		Status:    StatusIdle,
		Level:     level,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps UpdatedAt and LastSeen together.
func (a *Agent) Touch() {
	now := time.Now()
	a.LastSeen = now
	a.UpdatedAt = now
}
