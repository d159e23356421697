package usage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// modelRates is the per-1k-token price in USD. Costs are stored as
// integer cents rounded once at report time.
var modelRates = map[string]struct{ input, output float64 }{
	"claude-opus":   {0.015, 0.075},
	"claude-sonnet": {0.003, 0.015},
	"claude-haiku":  {0.00025, 0.00125},
}

const fallbackModel = "claude-sonnet"

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

var periodWindows = map[Period]time.Duration{
	PeriodToday: 24 * time.Hour,
	PeriodWeek:  7 * 24 * time.Hour,
	PeriodMonth: 30 * 24 * time.Hour,
}

// Report is the receipt returned to the reporting agent.
type Report struct {
	CostCents   int64 `json:"cost"`
	TotalTokens int64 `json:"totalTokens"`
}

// AgentUsage is one agent's lifetime totals.
type AgentUsage struct {
	Name        string  `json:"name"`
	Emoji       string  `json:"emoji"`
	TotalTokens int64   `json:"totalTokens"`
	TotalCost   float64 `json:"totalCost"`
	Requests    int     `json:"requests"`
}

// ModelUsage is one model's share of a period.
type ModelUsage struct {
	Model    string  `json:"model"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Requests int     `json:"requests"`
}

// PeriodUsage is the total for one time window.
type PeriodUsage struct {
	TotalTokens int64         `json:"totalTokens"`
	TotalCost   float64       `json:"totalCost"`
	Requests    int           `json:"requests"`
	ByModel     []*ModelUsage `json:"byModel"`
}

// DayUsage is one day's bucket, zero-filled for chart continuity.
type DayUsage struct {
	Date     string  `json:"date"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Requests int     `json:"requests"`
}

// Stats is the cross-entity overview block.
type Stats struct {
	TotalAgents          int     `json:"totalAgents"`
	ActiveAgents         int     `json:"activeAgents"`
	TotalTasks           int     `json:"totalTasks"`
	CompletedTasks       int     `json:"completedTasks"`
	AvgCompletionMinutes int     `json:"avgCompletionMinutes"`
	TotalTokens          int64   `json:"totalTokens"`
	TotalCost            float64 `json:"totalCost"`
	TotalRequests        int     `json:"totalRequests"`
}

type Service struct {
	repo   Repository
	agents agent.Repository
	tasks  task.Repository
}

func NewService(repo Repository, agents agent.Repository, tasks task.Repository) *Service {
	return &Service{repo: repo, agents: agents, tasks: tasks}
}

// Rate returns the per-1k-token USD prices for a model, falling back
// to claude-sonnet for anything unrecognized.
func Rate(model string) (input, output float64) {
	rate, ok := modelRates[model]
	if !ok {
		rate = modelRates[fallbackModel]
	}
	return rate.input, rate.output
}

// CostCents prices a call in integer cents.
func CostCents(model string, inputTokens, outputTokens int64) int64 {
	in, out := Rate(model)
	return int64(math.Round(
		float64(inputTokens)/1000*in*100 + float64(outputTokens)/1000*out*100))
}

// ReportUsage records one model call for an agent and accumulates the
// agent's lifetime token total.
func (s *Service) ReportUsage(ctx context.Context, agentName, taskID, sessionID, model string, inputTokens, outputTokens int64) (*Report, error) {
	a, err := s.agents.GetByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	if inputTokens < 0 || outputTokens < 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "token counts must be non-negative", nil)
	}

	cost := CostCents(model, inputTokens, outputTokens)
	u := New(a.ID, taskID, sessionID, model, inputTokens, outputTokens, cost)
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	a.TotalTokensUsed += u.TotalTokens()
	a.Touch()
	if err := s.agents.Put(ctx, a); err != nil {
		return nil, err
	}

	return &Report{CostCents: cost, TotalTokens: u.TotalTokens()}, nil
}

// ByAgent returns lifetime totals per registered agent, heaviest
// token consumers first. Agents with no usage appear with zeros.
func (s *Service) ByAgent(ctx context.Context) ([]*AgentUsage, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*AgentUsage, 0, len(agents))
	for _, a := range agents {
		row := &AgentUsage{Name: a.Name, Emoji: a.Emoji}
		var cents int64
		for _, u := range records {
			if u.AgentID != a.ID {
				continue
			}
			row.TotalTokens += u.TotalTokens()
			cents += u.CostCents
			row.Requests++
		}
		row.TotalCost = float64(cents) / 100
		result = append(result, row)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalTokens > result[j].TotalTokens
	})
	return result, nil
}

// ByPeriod aggregates usage inside a rolling window with a per-model
// breakdown.
func (s *Service) ByPeriod(ctx context.Context, period Period) (*PeriodUsage, error) {
	window, ok := periodWindows[period]
	if !ok && period != PeriodAll {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid period %q", period), nil)
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if period != PeriodAll {
		cutoff = time.Now().Add(-window)
	}

	result := &PeriodUsage{ByModel: []*ModelUsage{}}
	var totalCents int64
	byModel := map[string]*ModelUsage{}
	modelCents := map[string]int64{}
	for _, u := range records {
		if period != PeriodAll && u.CreatedAt.Before(cutoff) {
			continue
		}
		result.TotalTokens += u.TotalTokens()
		totalCents += u.CostCents
		result.Requests++

		m, ok := byModel[u.Model]
		if !ok {
			m = &ModelUsage{Model: u.Model}
			byModel[u.Model] = m
			result.ByModel = append(result.ByModel, m)
		}
		m.Tokens += u.TotalTokens()
		modelCents[u.Model] += u.CostCents
		m.Requests++
	}
	result.TotalCost = float64(totalCents) / 100
	for _, m := range result.ByModel {
		m.Cost = float64(modelCents[m.Model]) / 100
	}
	return result, nil
}

// Daily buckets the last n days by UTC date, zero-filling empty days
// so charts keep a continuous axis.
func (s *Service) Daily(ctx context.Context, days int) ([]*DayUsage, error) {
	if days <= 0 {
		days = 7
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	type bucket struct {
		tokens   int64
		cents    int64
		requests int
	}
	byDay := map[string]*bucket{}
	for _, u := range records {
		if u.CreatedAt.Before(cutoff) {
			continue
		}
		date := u.CreatedAt.UTC().Format("2006-01-02")
		b, ok := byDay[date]
		if !ok {
			b = &bucket{}
			byDay[date] = b
		}
		b.tokens += u.TotalTokens()
		b.cents += u.CostCents
		b.requests++
	}

	result := make([]*DayUsage, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.Add(-time.Duration(i) * 24 * time.Hour).UTC().Format("2006-01-02")
		day := &DayUsage{Date: date}
		if b, ok := byDay[date]; ok {
			day.Tokens = b.tokens
			day.Cost = float64(b.cents) / 100
			day.Requests = b.requests
		}
		result = append(result, day)
	}
	return result, nil
}

// Stats aggregates usage, task and agent totals for the overview page.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalAgents: len(agents), TotalTasks: len(tasks), TotalRequests: len(records)}
	for _, a := range agents {
		if a.Status != agent.StatusOffline {
			stats.ActiveAgents++
		}
	}

	var timedTasks, timedMinutes int
	for _, t := range tasks {
		if t.Status != task.StatusDone {
			continue
		}
		stats.CompletedTasks++
		if t.ActualMinutes > 0 {
			timedTasks++
			timedMinutes += t.ActualMinutes
		}
	}
	if timedTasks > 0 {
		stats.AvgCompletionMinutes = int(math.Round(float64(timedMinutes) / float64(timedTasks)))
	}

	var cents int64
	for _, u := range records {
		stats.TotalTokens += u.TotalTokens()
		cents += u.CostCents
	}
	stats.TotalCost = float64(cents) / 100
	return stats, nil
}
