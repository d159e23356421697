package httpapi

import (
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/internal/message"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type createMessageRequest struct {
	TaskID      string   `json:"taskId"`
	AgentName   string   `json:"agentName"`
	SenderName  string   `json:"senderName"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
	Type        string   `json:"type"`
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createMessageRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Content, "content") {
		return
	}

	created, err := h.messages.Create(ctx, message.CreateInput{
		TaskID:      req.TaskID,
		AgentName:   req.AgentName,
		SenderName:  req.SenderName,
		Content:     req.Content,
		Attachments: req.Attachments,
		Type:        message.Type(req.Type),
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "id": created.ID})
}

func (h *Handler) chatMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messages.ListChat(ctx, limit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "messages": messages})
}

func (h *Handler) messagesByTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := r.URL.Query().Get("taskId")
	if taskID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "taskId query param is required", nil)
		return
	}

	messages, err := h.messages.ListByTask(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "messages": messages})
}
