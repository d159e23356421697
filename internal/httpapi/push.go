package httpapi

import (
	"net/http"

	"github.com/missionhq/missionctl/internal/pushsubscription"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type pushSubscribeRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
	AgentName string `json:"agentName"`
}

func (h *Handler) pushSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pushSubscribeRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Endpoint, "endpoint") ||
		!requireField(r, req.P256dhKey, "p256dhKey") ||
		!requireField(r, req.AuthKey, "authKey") {
		return
	}

	// Re-subscribing the same endpoint replaces the old registration.
	if existing, err := h.pushSubs.FindByEndpoint(ctx, req.Endpoint); err == nil {
		if err := h.pushSubs.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	sub := pushsubscription.New(req.Endpoint, req.P256dhKey, req.AuthKey, req.AgentName)
	if err := h.pushSubs.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "id": sub.ID})
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *Handler) pushUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pushUnsubscribeRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Endpoint, "endpoint") {
		return
	}

	if err := h.pushSubs.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true})
}
