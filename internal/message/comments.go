package message

import (
	"context"

	"github.com/missionhq/missionctl/internal/task"
)

// The task service stores comments through this narrow surface so the
// two packages do not import each other's services.
var _ task.MessageStore = (*Service)(nil)

// AppendComment inserts a bare comment row with no notification
// fan-out; the caller owns the accompanying activity.
func (s *Service) AppendComment(ctx context.Context, taskID, agentID, senderName, content string) error {
	m := New(taskID, agentID, senderName, content, TypeComment)
	return s.repo.Put(ctx, m)
}

// CommentsByTask returns a task's messages in the detail-view shape.
func (s *Service) CommentsByTask(ctx context.Context, taskID string) ([]*task.Comment, error) {
	enriched, err := s.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	comments := make([]*task.Comment, 0, len(enriched))
	for _, e := range enriched {
		comments = append(comments, &task.Comment{
			ID:         e.ID,
			AgentID:    e.AgentID,
			SenderName: e.SenderName,
			AgentName:  e.AgentName,
			AgentEmoji: e.AgentEmoji,
			Content:    e.Content,
			CreatedAt:  e.CreatedAt,
		})
	}
	return comments, nil
}
