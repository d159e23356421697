package httpapi

import (
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/internal/usage"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type reportUsageRequest struct {
	AgentName    string `json:"agentName"`
	TaskID       string `json:"taskId"`
	SessionID    string `json:"sessionId"`
	Model        string `json:"model"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
}

func (h *Handler) reportUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req reportUsageRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") {
		return
	}

	report, err := h.usage.ReportUsage(ctx, req.AgentName, req.TaskID, req.SessionID, req.Model, req.InputTokens, req.OutputTokens)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "report": report})
}

func (h *Handler) usageByAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.usage.ByAgent(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "byAgent": rows})
}

func (h *Handler) usageByPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period := r.URL.Query().Get("period")
	if period == "" {
		period = string(usage.PeriodAll)
	}

	row, err := h.usage.ByPeriod(ctx, usage.Period(period))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "byPeriod": row})
}

func (h *Handler) usageDaily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	rows, err := h.usage.Daily(ctx, days)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "daily": rows})
}

func (h *Handler) usageStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.usage.Stats(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "stats": stats})
}
