package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

// statusLabels translates external board labels (Notion column names
// and their lowercase variants) into internal statuses. Unknown values
// pass through so the service rejects them with the exact input.
var statusLabels = map[string]task.Status{
	"Inbox":       task.StatusInbox,
	"Assigned":    task.StatusAssigned,
	"In Progress": task.StatusInProgress,
	"in progress": task.StatusInProgress,
	"Review":      task.StatusReview,
	"Done":        task.StatusDone,
	"Blocked":     task.StatusBlocked,
	"inbox":       task.StatusInbox,
	"assigned":    task.StatusAssigned,
	"in_progress": task.StatusInProgress,
	"review":      task.StatusReview,
	"done":        task.StatusDone,
	"blocked":     task.StatusBlocked,
}

func translateStatus(label string) task.Status {
	if status, ok := statusLabels[label]; ok {
		return status
	}
	return task.Status(label)
}

type createTaskRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	AssigneeNames    []string `json:"assigneeNames"`
	Assignees        []string `json:"assignees"`
	Tags             []string `json:"tags"`
	CreatedByName    string   `json:"createdByName"`
	CreatedBy        string   `json:"createdBy"`
	EstimatedMinutes int      `json:"estimatedMinutes"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.Title, "title") {
		return
	}

	assignees := req.AssigneeNames
	if len(assignees) == 0 {
		assignees = req.Assignees
	}
	createdBy := req.CreatedByName
	if createdBy == "" {
		createdBy = req.CreatedBy
	}
	priority := task.Priority(req.Priority)
	if req.Priority == "" {
		priority = task.PriorityMedium
	}

	created, err := h.tasks.Create(ctx, task.CreateInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         priority,
		AssigneeNames:    assignees,
		Tags:             req.Tags,
		CreatedByName:    createdBy,
		EstimatedMinutes: req.EstimatedMinutes,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"id":      created.ID,
		"message": fmt.Sprintf("Task %q created successfully", created.Title),
	})
}

type updateTaskStatusRequest struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	AgentName string `json:"agentName"`
}

func (h *Handler) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateTaskStatusRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.TaskID, "taskId") || !requireField(r, req.Status, "status") {
		return
	}

	status := translateStatus(req.Status)
	if _, err := h.tasks.UpdateStatus(ctx, req.TaskID, status, req.AgentName); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Task status updated to %s", status),
	})
}

type assignTaskRequest struct {
	TaskID        string   `json:"taskId"`
	AssigneeNames []string `json:"assigneeNames"`
}

func (h *Handler) assignTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req assignTaskRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.TaskID, "taskId") {
		return
	}

	updated, err := h.tasks.Assign(ctx, req.TaskID, req.AssigneeNames)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "task": updated})
}

type commentTaskRequest struct {
	TaskID     string `json:"taskId"`
	AgentName  string `json:"agentName"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
}

func (h *Handler) commentTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req commentTaskRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.TaskID, "taskId") || !requireField(r, req.Content, "content") {
		return
	}

	if err := h.tasks.AddComment(ctx, req.TaskID, req.AgentName, req.SenderName, req.Content); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true})
}

type deliverableRequest struct {
	TaskID      string `json:"taskId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	AddedByName string `json:"addedByName"`
}

func (h *Handler) addDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deliverableRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.TaskID, "taskId") || !requireField(r, req.Title, "title") || !requireField(r, req.URL, "url") {
		return
	}

	updated, err := h.tasks.AddDeliverable(ctx, req.TaskID, req.Title, req.URL, task.DeliverableType(req.Type), req.AddedByName)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "task": updated})
}

func (h *Handler) removeDeliverable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deliverableRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.TaskID, "taskId") || !requireField(r, req.URL, "url") {
		return
	}

	updated, err := h.tasks.RemoveDeliverable(ctx, req.TaskID, req.URL)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "task": updated})
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		tasks []*task.Task
		err   error
	)
	switch {
	case r.URL.Query().Get("status") != "":
		tasks, err = h.tasks.ListByStatus(ctx, translateStatus(r.URL.Query().Get("status")))
	case r.URL.Query().Get("agent") != "":
		tasks, err = h.tasks.ListByAgent(ctx, r.URL.Query().Get("agent"))
	default:
		tasks, err = h.tasks.List(ctx)
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "count": len(tasks), "tasks": tasks})
}

func (h *Handler) kanban(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	board, err := h.tasks.Kanban(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "board": board})
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		found *task.Task
		err   error
	)
	switch {
	case query.Get("id") != "":
		found, err = h.tasks.Get(ctx, query.Get("id"))
	case query.Get("number") != "":
		var number int
		number, err = strconv.Atoi(query.Get("number"))
		if err != nil {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "number must be an integer", err)
			return
		}
		found, err = h.tasks.FindByNumber(ctx, int64(number))
	case query.Get("title") != "":
		found, err = h.tasks.FindByTitle(ctx, query.Get("title"))
	default:
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "Provide number, title, or id query param", nil)
		return
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	detail, err := h.tasks.GetDetail(ctx, found.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"success": true, "task": detail})
}

type taskRefRequest struct {
	AgentName    string `json:"agentName"`
	TaskID       string `json:"taskId"`
	TaskNumber   int64  `json:"taskNumber"`
	Title        string `json:"title"`
	MoveToReview bool   `json:"moveToReview"`
}

// resolveTaskRef finds a task by explicit ID, number, or title match,
// in that order. Returns "" with the error already set when nothing
// matches.
func (h *Handler) resolveTaskRef(r *http.Request, req *taskRefRequest) string {
	ctx := r.Context()
	if req.TaskID != "" {
		return req.TaskID
	}
	if req.TaskNumber != 0 {
		if found, err := h.tasks.FindByNumber(ctx, req.TaskNumber); err == nil {
			return found.ID
		}
	}
	if req.Title != "" {
		if found, err := h.tasks.FindByTitle(ctx, req.Title); err == nil {
			return found.ID
		}
	}
	return ""
}

func (h *Handler) startTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req taskRefRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") {
		return
	}

	taskID := h.resolveTaskRef(r, &req)
	if taskID == "" {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "Task not found. Provide taskId, taskNumber, or title", nil)
		return
	}

	claimed, err := h.agents.ClaimTask(ctx, req.AgentName, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%s started task", req.AgentName),
		"agent":   claimed,
	})
}

func (h *Handler) finishTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req taskRefRequest
	if !decode(r, &req) {
		return
	}
	if !requireField(r, req.AgentName, "agentName") {
		return
	}

	taskID := h.resolveTaskRef(r, &req)
	if taskID == "" {
		// Fall back to whatever the agent is currently working on.
		if a, err := h.agents.GetByName(ctx, req.AgentName); err == nil {
			taskID = a.CurrentTaskID
		}
	}
	if taskID == "" {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "Task not found. Provide taskId, taskNumber, title, or agent must have a current task", nil)
		return
	}

	completed, err := h.agents.CompleteTask(ctx, req.AgentName, taskID, req.MoveToReview)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%s completed task", req.AgentName),
		"agent":   completed,
	})
}
