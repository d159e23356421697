package httpapi

import (
	"fmt"
	"net/http"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// agentStatusLabels translates the external status vocabulary. "Online"
// means reachable but idle; unknown values pass through unchanged.
var agentStatusLabels = map[string]agent.Status{
	"Online":  agent.StatusIdle,
	"Offline": agent.StatusOffline,
	"Working": agent.StatusWorking,
	"online":  agent.StatusIdle,
	"offline": agent.StatusOffline,
	"working": agent.StatusWorking,
	"idle":    agent.StatusIdle,
}

type registerAgentRequest struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Emoji      string `json:"emoji"`
	Level      string `json:"level"`
	Avatar     string `json:"avatar"`
	SessionKey string `json:"sessionKey"`
}

func (h *Handler) registerAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerAgentRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Name, "name") || !requireField(r, req.Role, "role") {
		return
	}

	registered, err := h.agents.Register(ctx, agent.RegisterInput{
		Name:       req.Name,
		Role:       req.Role,
		Emoji:      req.Emoji,
		Level:      agent.Level(req.Level),
		Avatar:     req.Avatar,
		SessionKey: req.SessionKey,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "agent": registered})
}

type agentStatusRequest struct {
	AgentName string `json:"agentName"`
	Status    string `json:"status"`
}

func (h *Handler) agentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req agentStatusRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") || !requireField(r, req.Status, "status") {
		return
	}

	status, ok := agentStatusLabels[req.Status]
	if !ok {
		status = agent.Status(req.Status)
	}

	var err error
	if status == agent.StatusOffline {
		_, err = h.agents.GoOffline(ctx, req.AgentName)
	} else {
		if _, err = h.agents.GoOnline(ctx, req.AgentName); err == nil && status == agent.StatusWorking {
			working := true
			err = h.agents.Heartbeat(ctx, req.AgentName, &working)
		}
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Agent %s status updated to %s", req.AgentName, status),
	})
}

type heartbeatRequest struct {
	AgentName string `json:"agentName"`
	IsWorking *bool  `json:"isWorking"`
}

func (h *Handler) agentHeartbeat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req heartbeatRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") {
		return
	}

	if err := h.agents.Heartbeat(ctx, req.AgentName, req.IsWorking); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true})
}

type claimTaskRequest struct {
	AgentName    string `json:"agentName"`
	TaskID       string `json:"taskId"`
	MoveToReview bool   `json:"moveToReview"`
}

func (h *Handler) claimTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req claimTaskRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") || !requireField(r, req.TaskID, "taskId") {
		return
	}

	claimed, err := h.agents.ClaimTask(ctx, req.AgentName, req.TaskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "agent": claimed})
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req claimTaskRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") || !requireField(r, req.TaskID, "taskId") {
		return
	}

	completed, err := h.agents.CompleteTask(ctx, req.AgentName, req.TaskID, req.MoveToReview)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "agent": completed})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		agents []*agent.Agent
		err    error
	)
	if r.URL.Query().Get("active") == "true" {
		agents, err = h.agents.GetActive(ctx)
	} else {
		agents, err = h.agents.List(ctx)
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "count": len(agents), "agents": agents})
}

func (h *Handler) agentStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.agents.Stats(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "stats": stats})
}
