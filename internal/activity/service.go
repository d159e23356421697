package activity

import (
	"context"
	"sort"
	"time"
)

const defaultListLimit = 50

// categoryTypes maps feed filter categories to the activity types they
// cover. Unknown categories yield an empty feed.
var categoryTypes = map[string][]string{
	"tasks":     {TypeTaskCreated, TypeTaskAssigned, TypeTaskStarted, TypeTaskCompleted},
	"comments":  {TypeTaskCommented},
	"decisions": {TypeDecisionMade},
	"docs":      {TypeDocumentCreated},
	"status":    {TypeAgentOnline, TypeAgentOffline, TypeAgentWorking, TypeTaskUpdated},
}

// AgentInfo is the slice of an agent the feed needs for display.
type AgentInfo struct {
	ID    string
	Name  string
	Emoji string
}

// Resolver looks up display data owned by other services. Implemented
// by an adapter over the agent and task repositories, wired in main.
type Resolver interface {
	AgentByID(ctx context.Context, id string) (*AgentInfo, bool, error)
	AgentByName(ctx context.Context, name string) (*AgentInfo, bool, error)
	TaskTitle(ctx context.Context, id string) (string, bool, error)
}

// Entry is an Activity joined with the agent and task it references.
type Entry struct {
	*Activity
	AgentName  string `json:"agentName,omitempty"`
	AgentEmoji string `json:"agentEmoji,omitempty"`
	TaskTitle  string `json:"taskTitle,omitempty"`
}

// AgentCount is the number of feed entries attributed to one agent.
type AgentCount struct {
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName,omitempty"`
	Count     int    `json:"count"`
}

type Service struct {
	repo     Repository
	resolver Resolver
}

func NewService(repo Repository, resolver Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// Log records a feed entry. AgentID and taskID may be empty. The type
// is not validated so callers can log kinds this package does not know.
func (s *Service) Log(ctx context.Context, activityType, agentID, taskID, message string, metadata *Metadata) (*Activity, error) {
	a := New(activityType, agentID, taskID, message, metadata)
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LogByName records a feed entry attributed by agent name. An unknown
// name logs an unattributed entry rather than failing.
func (s *Service) LogByName(ctx context.Context, activityType, agentName, taskID, message string, metadata *Metadata) (*Activity, error) {
	var agentID string
	if agentName != "" {
		info, ok, err := s.resolver.AgentByName(ctx, agentName)
		if err != nil {
			return nil, err
		}
		if ok {
			agentID = info.ID
		}
	}
	return s.Log(ctx, activityType, agentID, taskID, message, metadata)
}

// List returns the newest entries, enriched for display. limit <= 0
// falls back to the default page size.
func (s *Service) List(ctx context.Context, limit int) ([]*Entry, error) {
	return s.list(ctx, limit, nil)
}

// ListByType returns the newest entries in a filter category.
func (s *Service) ListByType(ctx context.Context, category string, limit int) ([]*Entry, error) {
	types := categoryTypes[category]
	match := make(map[string]bool, len(types))
	for _, t := range types {
		match[t] = true
	}
	return s.list(ctx, limit, func(a *Activity) bool {
		return match[a.Type]
	})
}

// ListByTask returns the newest entries referencing one task.
func (s *Service) ListByTask(ctx context.Context, taskID string, limit int) ([]*Entry, error) {
	return s.list(ctx, limit, func(a *Activity) bool {
		return a.TaskID == taskID
	})
}

// ListByAgent returns the newest entries attributed to an agent name.
func (s *Service) ListByAgent(ctx context.Context, agentName string, limit int) ([]*Entry, error) {
	info, ok, err := s.resolver.AgentByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*Entry{}, nil
	}
	return s.list(ctx, limit, func(a *Activity) bool {
		return a.AgentID == info.ID
	})
}

func (s *Service) list(ctx context.Context, limit int, keep func(*Activity) bool) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	// Repository order is creation-ascending, the feed reads newest first.
	entries := make([]*Entry, 0, limit)
	for i := len(activities) - 1; i >= 0 && len(entries) < limit; i-- {
		a := activities[i]
		if keep != nil && !keep(a) {
			continue
		}
		e, err := s.enrich(ctx, a)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Service) enrich(ctx context.Context, a *Activity) (*Entry, error) {
	e := &Entry{Activity: a}
	if a.AgentID != "" {
		info, ok, err := s.resolver.AgentByID(ctx, a.AgentID)
		if err != nil {
			return nil, err
		}
		if ok {
			e.AgentName = info.Name
			e.AgentEmoji = info.Emoji
		}
	}
	if a.TaskID != "" {
		title, ok, err := s.resolver.TaskTitle(ctx, a.TaskID)
		if err != nil {
			return nil, err
		}
		if ok {
			e.TaskTitle = title
		}
	}
	return e, nil
}

// Counts returns per-category totals plus the overall entry count
// under the key "total".
func (s *Service) Counts(ctx context.Context) (map[string]int, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	typeCategory := map[string]string{}
	for category, types := range categoryTypes {
		for _, t := range types {
			typeCategory[t] = category
		}
	}
	counts := map[string]int{"total": len(activities)}
	for category := range categoryTypes {
		counts[category] = 0
	}
	for _, a := range activities {
		if category, ok := typeCategory[a.Type]; ok {
			counts[category]++
		}
	}
	return counts, nil
}

// AgentActivityCounts returns entry counts per agent, busiest first.
func (s *Service) AgentActivityCounts(ctx context.Context) ([]*AgentCount, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	byAgent := map[string]int{}
	for _, a := range activities {
		if a.AgentID != "" {
			byAgent[a.AgentID]++
		}
	}
	counts := make([]*AgentCount, 0, len(byAgent))
	for agentID, n := range byAgent {
		c := &AgentCount{AgentID: agentID, Count: n}
		info, ok, err := s.resolver.AgentByID(ctx, agentID)
		if err != nil {
			return nil, err
		}
		if ok {
			c.AgentName = info.Name
		}
		counts = append(counts, c)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].AgentID < counts[j].AgentID
	})
	return counts, nil
}

// DeleteOlderThan removes entries created before the cutoff and
// returns how many were deleted.
func (s *Service) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, a := range activities {
		if a.CreatedAt.Before(cutoff) {
			if err := s.repo.Delete(ctx, a.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
