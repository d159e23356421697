package metric

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Type string

const (
	TypeDaily     Type = "daily"
	TypeSession   Type = "session"
	TypeAggregate Type = "aggregate"
)

// ValidType reports whether t is a known metric type.
func ValidType(t Type) bool {
	switch t {
	case TypeDaily, TypeSession, TypeAggregate:
		return true
	}
	return false
}

// DateFormat is the YYYY-MM-DD bucket key used across metric rows.
const DateFormat = "2006-01-02"

// Metric is one recorded measurement. Daily rows are unique per date
// via the upsert path; session and aggregate rows are append-only.
type Metric struct {
	ID           string    `yaml:"id" json:"id"`
	Type         Type      `yaml:"type" json:"type"`
	Date         string    `yaml:"date" json:"date"`
	SessionKey   string    `yaml:"sessionKey,omitempty" json:"sessionKey,omitempty"`
	AgentID      string    `yaml:"agentId,omitempty" json:"agentId,omitempty"`
	TotalTokens  int64     `yaml:"totalTokens" json:"totalTokens"`
	InputTokens  int64     `yaml:"inputTokens,omitempty" json:"inputTokens,omitempty"`
	OutputTokens int64     `yaml:"outputTokens,omitempty" json:"outputTokens,omitempty"`
	Cost         float64   `yaml:"cost,omitempty" json:"cost,omitempty"`
	RequestCount int       `yaml:"requestCount,omitempty" json:"requestCount,omitempty"`
	AvgLatencyMs float64   `yaml:"avgLatencyMs,omitempty" json:"avgLatencyMs,omitempty"`
	Model        string    `yaml:"model,omitempty" json:"model,omitempty"`
	CreatedAt    time.Time `yaml:"createdAt" json:"createdAt"`
}

func New(metricType Type, date string) *Metric {
	return &Metric{
		ID:        ulid.Make().String(),
		Type:      metricType,
		Date:      date,
		CreatedAt: time.Now(),
	}
}
