package httpapi

import (
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/internal/terminallog"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type terminalLogRequest struct {
	AgentName string         `json:"agentName"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	TaskID    string         `json:"taskId"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *Handler) terminalLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req terminalLogRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") || !requireField(r, req.Message, "message") {
		return
	}

	level := terminallog.Level(req.Level)
	if req.Level == "" {
		level = terminallog.LevelInfo
	}

	logged, err := h.terminalLogs.AddByName(ctx, req.AgentName, level, req.Message, req.TaskID, req.Metadata)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "id": logged.ID})
}

func (h *Handler) terminalRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.terminalLogs.Recent(ctx, limit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "logs": logs})
}
