package httpapi

import (
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/pkg/cerr"
)

type dailyMetricRequest struct {
	Date         string  `json:"date"`
	TotalTokens  int64   `json:"totalTokens"`
	Cost         float64 `json:"cost"`
	RequestCount int     `json:"requestCount"`
}

func (h *Handler) upsertDailyMetric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dailyMetricRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Date, "date") {
		return
	}

	m, err := h.metrics.UpsertDaily(ctx, req.Date, req.TotalTokens, req.Cost, req.RequestCount)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "metric": m})
}

func (h *Handler) metricsSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	summary, err := h.metrics.GetSummary(ctx, days)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "summary": summary})
}
