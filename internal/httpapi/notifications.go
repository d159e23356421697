package httpapi

import (
	"fmt"
	"net/http"

	"github.com/missionhq/missionctl/pkg/cerr"
)

type createNotificationRequest struct {
	ToAgent   string `json:"toAgent"`
	FromAgent string `json:"fromAgent"`
	TaskID    string `json:"taskId"`
	Content   string `json:"content"`
}

func (h *Handler) createNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createNotificationRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.ToAgent, "toAgent") || !requireField(r, req.Content, "content") {
		return
	}

	created, err := h.notifications.CreateByName(ctx, req.ToAgent, req.FromAgent, req.TaskID, req.Content)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"id":      created.ID,
		"message": fmt.Sprintf("Notification created for %s", req.ToAgent),
	})
}

func (h *Handler) pendingNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentName := r.URL.Query().Get("agent")
	if agentName == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "agent query param is required", nil)
		return
	}

	pending, err := h.notifications.GetUndelivered(ctx, agentName)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success":       true,
		"count":         len(pending),
		"notifications": pending,
	})
}

type markDeliveredRequest struct {
	ID string `json:"id"`
}

func (h *Handler) markNotificationDelivered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req markDeliveredRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.ID, "id") {
		return
	}

	if err := h.notifications.MarkDelivered(ctx, req.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"message": "Notification marked as delivered",
	})
}
