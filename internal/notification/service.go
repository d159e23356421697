package notification

import (
	"context"
	"fmt"

	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// AgentInfo is the slice of an agent this package needs to route and
// display notifications.
type AgentInfo struct {
	ID         string
	Name       string
	SessionKey string
}

// AgentResolver is implemented by an adapter over the agent
// repository, wired in main.
type AgentResolver interface {
	AgentByID(ctx context.Context, id string) (*AgentInfo, bool, error)
	AgentByName(ctx context.Context, name string) (*AgentInfo, bool, error)
}

// Pending is an undelivered notification joined with its recipient.
type Pending struct {
	*Notification
	AgentName  string `json:"agentName"`
	SessionKey string `json:"sessionKey,omitempty"`
}

type Service struct {
	repo     Repository
	resolver AgentResolver
	bus      *eventbus.Bus
}

func NewService(repo Repository, resolver AgentResolver, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, resolver: resolver, bus: bus}
}

// Create stores a notification for an already-resolved recipient ID
// and announces it on the bus for push delivery.
func (s *Service) Create(ctx context.Context, mentionedAgentID, fromAgentID, taskID, content string) (*Notification, error) {
	n := New(mentionedAgentID, fromAgentID, taskID, content)
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	s.bus.PublishNew(eventbus.TypeNotificationCreated, n.ID, content, map[string]string{
		"agentId": mentionedAgentID,
	})
	return n, nil
}

// CreateByName resolves the recipient by name. The sender name is
// optional and an unresolvable sender is recorded as anonymous.
func (s *Service) CreateByName(ctx context.Context, mentionedAgentName, fromAgentName, taskID, content string) (*Notification, error) {
	mentioned, ok, err := s.resolver.AgentByName(ctx, mentionedAgentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("agent %q not found", mentionedAgentName), nil)
	}
	var fromID string
	if fromAgentName != "" {
		if from, ok, err := s.resolver.AgentByName(ctx, fromAgentName); err != nil {
			return nil, err
		} else if ok {
			fromID = from.ID
		}
	}
	return s.Create(ctx, mentioned.ID, fromID, taskID, content)
}

// GetUndelivered returns the pending notifications for one agent name,
// oldest first. An unknown name yields an empty list.
func (s *Service) GetUndelivered(ctx context.Context, agentName string) ([]*Notification, error) {
	agent, ok, err := s.resolver.AgentByName(ctx, agentName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*Notification{}, nil
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*Notification, 0)
	for _, n := range all {
		if !n.Delivered && n.MentionedAgentID == agent.ID {
			pending = append(pending, n)
		}
	}
	return pending, nil
}

// GetAllUndelivered returns every pending notification joined with its
// recipient's name and session key, oldest first.
func (s *Service) GetAllUndelivered(ctx context.Context) ([]*Pending, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]*Pending, 0)
	for _, n := range all {
		if n.Delivered {
			continue
		}
		p := &Pending{Notification: n}
		if agent, ok, err := s.resolver.AgentByID(ctx, n.MentionedAgentID); err != nil {
			return nil, err
		} else if ok {
			p.AgentName = agent.Name
			p.SessionKey = agent.SessionKey
		}
		pending = append(pending, p)
	}
	return pending, nil
}

// MarkDelivered flips a notification to delivered.
func (s *Service) MarkDelivered(ctx context.Context, id string) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	n.Delivered = true
	return s.repo.Put(ctx, n)
}
