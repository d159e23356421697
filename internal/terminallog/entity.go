package terminallog

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSystem  Level = "system"
)

// ValidLevel reports whether l is a known terminal log level.
func ValidLevel(l Level) bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError, LevelSystem:
		return true
	}
	return false
}

// Log is one terminal line streamed from an agent's runtime.
type Log struct {
	ID        string         `yaml:"id" json:"id"`
	AgentID   string         `yaml:"agentId" json:"agentId"`
	Level     Level          `yaml:"level" json:"level"`
	Message   string         `yaml:"message" json:"message"`
	TaskID    string         `yaml:"taskId,omitempty" json:"taskId,omitempty"`
	Metadata  map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time      `yaml:"createdAt" json:"createdAt"`
}

func New(agentID string, level Level, message string) *Log {
	return &Log{
		ID:        ulid.Make().String(),
		AgentID:   agentID,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
