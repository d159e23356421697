package httpapi

import (
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type logActivityRequest struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	AgentName string         `json:"agentName"`
	TaskID    string         `json:"taskId"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req logActivityRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Type, "type") || !requireField(r, req.Message, "message") {
		return
	}

	var metadata *activity.Metadata
	if len(req.Metadata) > 0 {
		metadata = &activity.Metadata{Kind: activity.MetadataOpaque, Opaque: req.Metadata}
	}

	logged, err := h.activities.LogByName(ctx, req.Type, req.AgentName, req.TaskID, req.Message, metadata)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "id": logged.ID})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	var (
		entries []*activity.Entry
		err     error
	)
	switch {
	case query.Get("type") != "":
		entries, err = h.activities.ListByType(ctx, query.Get("type"), limit)
	case query.Get("agent") != "":
		entries, err = h.activities.ListByAgent(ctx, query.Get("agent"), limit)
	case query.Get("taskId") != "":
		entries, err = h.activities.ListByTask(ctx, query.Get("taskId"), limit)
	default:
		entries, err = h.activities.List(ctx, limit)
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "activities": entries})
}
