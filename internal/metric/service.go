package metric

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/missionhq/missionctl/pkg/cerr"
)

const (
	defaultListLimit    = 30
	defaultSessionLimit = 10
	defaultSummaryDays  = 7
	defaultKeepDays     = 90
)

// RecordInput carries a full metric row.
type RecordInput struct {
	Type         Type
	Date         string
	SessionKey   string
	AgentID      string
	TotalTokens  int64
	InputTokens  int64
	OutputTokens int64
	Cost         float64
	RequestCount int
	AvgLatencyMs float64
	Model        string
}

// Summary compares the recent window's halves to expose a trend.
type Summary struct {
	Days           int     `json:"days"`
	TotalTokens    int64   `json:"totalTokens"`
	TotalCost      float64 `json:"totalCost"`
	AvgDailyTokens int64   `json:"avgDailyTokens"`
	AvgDailyCost   float64 `json:"avgDailyCost"`
	TrendPercent   int     `json:"trend"`
	DataPoints     int     `json:"dataPoints"`
	LatestDate     string  `json:"latestDate,omitempty"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends a metric row without dedup.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Metric, error) {
	if !ValidType(in.Type) {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid metric type %q", in.Type), nil)
	}
	if _, err := time.Parse(DateFormat, in.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid date %q", in.Date), nil)
	}
	m := New(in.Type, in.Date)
	m.SessionKey = in.SessionKey
	m.AgentID = in.AgentID
	m.TotalTokens = in.TotalTokens
	m.InputTokens = in.InputTokens
	m.OutputTokens = in.OutputTokens
	m.Cost = in.Cost
	m.RequestCount = in.RequestCount
	m.AvgLatencyMs = in.AvgLatencyMs
	m.Model = in.Model
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpsertDaily replaces the daily row for a date, creating it on first
// write. Totals are absolute, not deltas.
func (s *Service) UpsertDaily(ctx context.Context, date string, totalTokens int64, cost float64, requestCount int) (*Metric, error) {
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid date %q", date), nil)
	}
	metrics, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var existing *Metric
	for _, m := range metrics {
		if m.Type == TypeDaily && m.Date == date {
			existing = m
			break
		}
	}
	if existing == nil {
		existing = New(TypeDaily, date)
	}
	existing.TotalTokens = totalTokens
	existing.Cost = cost
	existing.RequestCount = requestCount
	existing.CreatedAt = time.Now()
	if err := s.repo.Put(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// List returns metrics newest-date first, optionally filtered by type
// and an inclusive date range.
func (s *Service) List(ctx context.Context, metricType Type, limit int, startDate, endDate string) ([]*Metric, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	metrics, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*Metric, 0, len(metrics))
	for _, m := range metrics {
		if metricType != "" && m.Type != metricType {
			continue
		}
		if startDate != "" && m.Date < startDate {
			continue
		}
		if endDate != "" && m.Date > endDate {
			continue
		}
		filtered = append(filtered, m)
	}
	sortByDateDesc(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// BySession returns the newest rows for one session key, one agent,
// or overall when neither filter is set.
func (s *Service) BySession(ctx context.Context, sessionKey, agentID string, limit int) ([]*Metric, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	metrics, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*Metric, 0, len(metrics))
	for _, m := range metrics {
		if sessionKey != "" && m.SessionKey != sessionKey {
			continue
		}
		if sessionKey == "" && agentID != "" && m.AgentID != agentID {
			continue
		}
		filtered = append(filtered, m)
	}
	sortByDateDesc(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// GetSummary aggregates the last n daily rows. The trend compares the
// newer half of the window against the older half, in percent.
func (s *Service) GetSummary(ctx context.Context, days int) (*Summary, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	metrics, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	startDate := time.Now().Add(-time.Duration(days) * 24 * time.Hour).UTC().Format(DateFormat)
	daily := make([]*Metric, 0, days)
	for _, m := range metrics {
		if m.Type == TypeDaily && m.Date >= startDate {
			daily = append(daily, m)
		}
	}
	sortByDateDesc(daily)
	if len(daily) > days {
		daily = daily[:days]
	}

	summary := &Summary{Days: days, DataPoints: len(daily)}
	for _, m := range daily {
		summary.TotalTokens += m.TotalTokens
		summary.TotalCost += m.Cost
	}
	if len(daily) > 0 {
		summary.AvgDailyTokens = int64(math.Round(float64(summary.TotalTokens) / float64(len(daily))))
		summary.AvgDailyCost = math.Round(summary.TotalCost/float64(len(daily))*100) / 100
		summary.LatestDate = daily[0].Date
	}

	half := len(daily) / 2
	var olderTokens, newerTokens int64
	for _, m := range daily[half:] {
		olderTokens += m.TotalTokens
	}
	for _, m := range daily[:half] {
		newerTokens += m.TotalTokens
	}
	if olderTokens > 0 {
		summary.TrendPercent = int(math.Round(float64(newerTokens-olderTokens) / float64(olderTokens) * 100))
	}
	return summary, nil
}

// Cleanup deletes rows dated before the retention window and returns
// how many were removed.
func (s *Service) Cleanup(ctx context.Context, keepDays int) (int, error) {
	if keepDays <= 0 {
		keepDays = defaultKeepDays
	}
	metrics, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-time.Duration(keepDays) * 24 * time.Hour).UTC().Format(DateFormat)
	deleted := 0
	for _, m := range metrics {
		if m.Date < cutoff {
			if err := s.repo.Delete(ctx, m.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func sortByDateDesc(metrics []*Metric) {
	sort.SliceStable(metrics, func(i, j int) bool {
		if metrics[i].Date != metrics[j].Date {
			return metrics[i].Date > metrics[j].Date
		}
		return metrics[i].CreatedAt.After(metrics[j].CreatedAt)
	})
}
