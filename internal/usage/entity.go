package usage

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Usage is one reported model invocation. CostCents is computed at
// write time from the rate table and never recomputed.
type Usage struct {
	ID           string    `yaml:"id" json:"id"`
	AgentID      string    `yaml:"agentId" json:"agentId"`
	TaskID       string    `yaml:"taskId,omitempty" json:"taskId,omitempty"`
	SessionID    string    `yaml:"sessionId,omitempty" json:"sessionId,omitempty"`
	Model        string    `yaml:"model" json:"model"`
	InputTokens  int64     `yaml:"inputTokens" json:"inputTokens"`
	OutputTokens int64     `yaml:"outputTokens" json:"outputTokens"`
	CostCents    int64     `yaml:"costCents" json:"costCents"`
	CreatedAt    time.Time `yaml:"createdAt" json:"createdAt"`
}

func New(agentID, taskID, sessionID, model string, inputTokens, outputTokens, costCents int64) *Usage {
	return &Usage{
		ID:           ulid.Make().String(),
		AgentID:      agentID,
		TaskID:       taskID,
		SessionID:    sessionID,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostCents:    costCents,
		CreatedAt:    time.Now(),
	}
}

// TotalTokens is input plus output.
func (u *Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}
