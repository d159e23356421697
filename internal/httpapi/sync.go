package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/missionhq/missionctl/internal/counter"
	"github.com/missionhq/missionctl/pkg/cerr"
)

func (h *Handler) runNotionSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.syncer == nil {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "notion sync is not configured", nil)
		return
	}

	result := h.syncer.Run(ctx)
	if result.Success {
		if err := h.counters.Set(ctx, counter.NameLastNotionSync, time.Now().UnixMilli()); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success":       result.Success,
		"tasksUpdated":  result.TasksUpdated,
		"agentsUpdated": result.AgentsUpdated,
		"errors":        result.Errors,
		"timestamp":     time.Now().UnixMilli(),
	})
}

func (h *Handler) lastNotionSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lastSync, err := h.counters.Get(ctx, counter.NameLastNotionSync)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	lastSyncAgo := "never"
	if lastSync > 0 {
		lastSyncAgo = fmt.Sprintf("%ds ago", (time.Now().UnixMilli()-lastSync)/1000)
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success":     true,
		"lastSync":    lastSync,
		"lastSyncAgo": lastSyncAgo,
	})
}
