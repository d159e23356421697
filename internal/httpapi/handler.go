// Package httpapi exposes the coordination services as a JSON façade
// for dashboards and agent shell hooks.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/missionhq/missionctl/internal/activity"
	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/counter"
	"github.com/missionhq/missionctl/internal/message"
	"github.com/missionhq/missionctl/internal/metric"
	"github.com/missionhq/missionctl/internal/notification"
	"github.com/missionhq/missionctl/internal/notion"
	"github.com/missionhq/missionctl/internal/pushsubscription"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/internal/terminallog"
	"github.com/missionhq/missionctl/internal/usage"
	"github.com/missionhq/missionctl/pkg/cerr"
)

type Handler struct {
	tasks         *task.Service
	agents        *agent.Service
	messages      *message.Service
	notifications *notification.Service
	activities    *activity.Service
	usage         *usage.Service
	metrics       *metric.Service
	terminalLogs  *terminallog.Service
	counters      *counter.Service
	pushSubs      pushsubscription.Repository
	// syncer is nil when Notion sync is not configured.
	syncer *notion.Syncer
}

func NewHandler(
	tasks *task.Service,
	agents *agent.Service,
	messages *message.Service,
	notifications *notification.Service,
	activities *activity.Service,
	usageService *usage.Service,
	metrics *metric.Service,
	terminalLogs *terminallog.Service,
	counters *counter.Service,
	pushSubs pushsubscription.Repository,
	syncer *notion.Syncer,
) *Handler {
	return &Handler{
		tasks:         tasks,
		agents:        agents,
		messages:      messages,
		notifications: notifications,
		activities:    activities,
		usage:         usageService,
		metrics:       metrics,
		terminalLogs:  terminalLogs,
		counters:      counters,
		pushSubs:      pushSubs,
		syncer:        syncer,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/tasks/create", h.createTask)
	r.Post("/tasks/update-status", h.updateTaskStatus)
	r.Post("/tasks/assign", h.assignTask)
	r.Post("/tasks/comment", h.commentTask)
	r.Post("/tasks/deliverable/add", h.addDeliverable)
	r.Post("/tasks/deliverable/remove", h.removeDeliverable)
	r.Get("/tasks", h.listTasks)
	r.Get("/tasks/kanban", h.kanban)
	r.Get("/task/get", h.getTask)
	r.Post("/task/start", h.startTask)
	r.Post("/task/finish", h.finishTask)

	r.Post("/agents/register", h.registerAgent)
	r.Post("/agents/status", h.agentStatus)
	r.Post("/agents/heartbeat", h.agentHeartbeat)
	r.Post("/agents/claim-task", h.claimTask)
	r.Post("/agents/complete-task", h.completeTask)
	r.Get("/agents", h.listAgents)
	r.Get("/agents/stats", h.agentStats)

	r.Post("/usage/report", h.reportUsage)
	r.Get("/usage/by-agent", h.usageByAgent)
	r.Get("/usage/by-period", h.usageByPeriod)
	r.Get("/usage/daily", h.usageDaily)
	r.Get("/usage/stats", h.usageStats)

	r.Post("/metrics/daily", h.upsertDailyMetric)
	r.Get("/metrics/summary", h.metricsSummary)

	r.Post("/messages/create", h.createMessage)
	r.Get("/messages/chat", h.chatMessages)
	r.Get("/messages/by-task", h.messagesByTask)

	r.Post("/activities/log", h.logActivity)
	r.Get("/activities", h.listActivities)

	r.Post("/terminal/log", h.terminalLog)
	r.Get("/terminal/recent", h.terminalRecent)

	r.Post("/notifications/create", h.createNotification)
	r.Get("/notifications/pending", h.pendingNotifications)
	r.Post("/notifications/mark-delivered", h.markNotificationDelivered)

	r.Post("/push/subscribe", h.pushSubscribe)
	r.Post("/push/unsubscribe", h.pushUnsubscribe)

	r.Post("/sync/notion", h.runNotionSync)
	r.Get("/sync/notion", h.lastNotionSync)
}

// decode parses the request body into dst. A failure is reported as an
// InvalidArgument so callers get a 400, not a blanket 500.
func decode(r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, "invalid JSON body", err)
		return false
	}
	return true
}

func requireField(r *http.Request, value, name string) bool {
	if value == "" {
		cerr.SetNewJSONError(r.Context(), cerr.InvalidArgument, name+" is required", nil)
		return false
	}
	return true
}
