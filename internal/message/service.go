package message

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/eventbus"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

const (
	defaultChatLimit = 50
	previewRunes     = 100

	// humanEmoji marks senders without an agent record.
	humanEmoji = "👤"
)

var mentionRE = regexp.MustCompile(`@(\w+)`)

// Enriched is a message joined with its sender for display.
type Enriched struct {
	*Message
	AgentName  string `json:"agentName,omitempty"`
	AgentEmoji string `json:"agentEmoji,omitempty"`
}

// CreateInput carries the optional fields of Create. AgentName and
// SenderName are alternatives; at least one must resolve to a sender.
type CreateInput struct {
	TaskID      string
	AgentName   string
	SenderName  string
	Content     string
	Attachments []string
	Type        Type
}

type Service struct {
	repo          Repository
	agents        agent.Repository
	tasks         task.Repository
	activities    *activity.Service
	notifications *notification.Service
	bus           *eventbus.Bus
}

func NewService(
	repo Repository,
	agents agent.Repository,
	tasks task.Repository,
	activities *activity.Service,
	notifications *notification.Service,
	bus *eventbus.Bus,
) *Service {
	return &Service{
		repo:          repo,
		agents:        agents,
		tasks:         tasks,
		activities:    activities,
		notifications: notifications,
		bus:           bus,
	}
}

// Create stores a message and fans out notifications. Task assignees
// other than the sender are notified of the comment, and every
// @mentioned agent is notified of the mention. An agent that is both
// an assignee and mentioned gets both notifications.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Message, error) {
	var sender *agent.Agent
	if in.AgentName != "" {
		a, err := s.agents.GetByName(ctx, in.AgentName)
		if err != nil && !cerr.IsCode(err, cerr.NotFound) {
			return nil, err
		}
		sender = a
	}

	displayName := in.SenderName
	if sender != nil {
		displayName = sender.Name
	}
	if displayName == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "agentName or senderName is required", nil)
	}

	var t *task.Task
	if in.TaskID != "" {
		var err error
		t, err = s.tasks.Get(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
	}

	messageType := in.Type
	if messageType == "" {
		if t != nil {
			messageType = TypeComment
		} else {
			messageType = TypeChat
		}
	}

	var senderID string
	if sender != nil {
		senderID = sender.ID
	}
	m := New(in.TaskID, senderID, in.SenderName, in.Content, messageType)
	m.Attachments = in.Attachments
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}

	activityMessage := fmt.Sprintf("%s enviou mensagem no chat", displayName)
	if t != nil {
		activityMessage = fmt.Sprintf("%s comentou em %q", displayName, t.Title)
	}
	if _, err := s.activities.Log(ctx, activity.TypeMessageSent, senderID, in.TaskID, activityMessage, nil); err != nil {
		return nil, err
	}

	if t != nil {
		content := fmt.Sprintf("%s comentou: %q", displayName, truncate(in.Content))
		for _, assigneeID := range t.AssigneeIDs {
			if assigneeID == senderID {
				continue
			}
			if _, err := s.notifications.Create(ctx, assigneeID, senderID, in.TaskID, content); err != nil {
				return nil, err
			}
		}
	}

	if err := s.notifyMentions(ctx, in.TaskID, senderID, displayName, in.Content); err != nil {
		return nil, err
	}

	s.bus.PublishNew(eventbus.TypeMessageCreated, m.ID, in.Content, nil)
	return m, nil
}

func (s *Service) notifyMentions(ctx context.Context, taskID, senderID, displayName, content string) error {
	matches := mentionRE.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	agents, err := s.agents.List(ctx)
	if err != nil {
		return err
	}
	notificationContent := fmt.Sprintf("%s mencionou você: %q", displayName, truncate(content))
	for _, match := range matches {
		mentionedName := strings.ToLower(match[1])
		for _, a := range agents {
			if strings.ToLower(a.Name) != mentionedName {
				continue
			}
			if a.ID == senderID {
				break
			}
			if _, err := s.notifications.Create(ctx, a.ID, senderID, taskID, notificationContent); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// ListByTask returns a task's messages oldest first, with senders
// resolved for display.
func (s *Service) ListByTask(ctx context.Context, taskID string) ([]*Enriched, error) {
	messages, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*Message, 0)
	for _, m := range messages {
		if m.TaskID == taskID {
			filtered = append(filtered, m)
		}
	}
	return s.enrichAll(ctx, filtered)
}

// ListChat returns the latest general-chat messages, oldest first.
func (s *Service) ListChat(ctx context.Context, limit int) ([]*Enriched, error) {
	if limit <= 0 {
		limit = defaultChatLimit
	}
	messages, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	chat := make([]*Message, 0)
	for _, m := range messages {
		if m.TaskID == "" {
			chat = append(chat, m)
		}
	}
	if len(chat) > limit {
		chat = chat[len(chat)-limit:]
	}
	return s.enrichAll(ctx, chat)
}

func (s *Service) enrichAll(ctx context.Context, messages []*Message) ([]*Enriched, error) {
	enriched := make([]*Enriched, 0, len(messages))
	for _, m := range messages {
		e := &Enriched{Message: m, AgentName: m.SenderName, AgentEmoji: humanEmoji}
		if m.AgentID != "" {
			a, err := s.agents.Get(ctx, m.AgentID)
			if err == nil {
				e.AgentName = a.Name
				e.AgentEmoji = a.Emoji
			} else if !cerr.IsCode(err, cerr.NotFound) {
				return nil, err
			}
		}
		enriched = append(enriched, e)
	}
	sort.SliceStable(enriched, func(i, j int) bool {
		return enriched[i].CreatedAt.Before(enriched[j].CreatedAt)
	})
	return enriched, nil
}

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRunes {
		return content
	}
	return string(runes[:previewRunes]) + "..."
}
