package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
)

var (
	app = kingpin.New("missionctl", "Mission control client for agent coordination")

	// Task commands
	taskCmd = app.Command("task", "Task management commands")

	taskCreateCmd       = taskCmd.Command("create", "Create a new task")
	taskCreateTitle     = taskCreateCmd.Arg("title", "Task title").Required().String()
	taskCreateDesc      = taskCreateCmd.Flag("description", "Task description").String()
	taskCreatePriority  = taskCreateCmd.Flag("priority", "Priority (low, medium, high)").Default("medium").String()
	taskCreateAssignees = taskCreateCmd.Flag("assignee", "Assign to agent (repeatable)").Strings()
	taskCreateTags      = taskCreateCmd.Flag("tag", "Tag (repeatable)").Strings()
	taskCreateBy        = taskCreateCmd.Flag("by", "Creator agent name").String()

	taskListCmd    = taskCmd.Command("list", "List tasks")
	taskListStatus = taskListCmd.Flag("status", "Filter by status").String()
	taskListAgent  = taskListCmd.Flag("agent", "Filter by assignee name").String()

	taskShowCmd    = taskCmd.Command("show", "Show task details")
	taskShowNumber = taskShowCmd.Arg("number", "Task number").Required().Int64()

	taskStatusCmd    = taskCmd.Command("status", "Update task status")
	taskStatusNumber = taskStatusCmd.Arg("number", "Task number").Required().Int64()
	taskStatusValue  = taskStatusCmd.Arg("status", "New status").Required().String()
	taskStatusAgent  = taskStatusCmd.Flag("agent", "Acting agent name").String()

	taskStartCmd    = taskCmd.Command("start", "Claim and start a task")
	taskStartNumber = taskStartCmd.Arg("number", "Task number").Required().Int64()
	taskStartAgent  = taskStartCmd.Flag("agent", "Agent name").Required().String()

	taskFinishCmd    = taskCmd.Command("finish", "Complete a task")
	taskFinishAgent  = taskFinishCmd.Flag("agent", "Agent name").Required().String()
	taskFinishNumber = taskFinishCmd.Arg("number", "Task number (defaults to the agent's current task)").Int64()
	taskFinishReview = taskFinishCmd.Flag("review", "Move to review instead of done").Bool()

	kanbanCmd = app.Command("kanban", "Show the Kanban board")

	// Agent commands
	agentCmd = app.Command("agent", "Agent management commands")

	agentRegisterCmd   = agentCmd.Command("register", "Register or refresh an agent")
	agentRegisterName  = agentRegisterCmd.Arg("name", "Agent name").Required().String()
	agentRegisterRole  = agentRegisterCmd.Flag("role", "Agent role").Required().String()
	agentRegisterEmoji = agentRegisterCmd.Flag("emoji", "Display emoji").String()
	agentRegisterLevel = agentRegisterCmd.Flag("level", "Level (lead, specialist, intern)").Default("specialist").String()

	agentListCmd = agentCmd.Command("list", "List agents")

	agentStatusCmd   = agentCmd.Command("status", "Set an agent's status")
	agentStatusName  = agentStatusCmd.Arg("name", "Agent name").Required().String()
	agentStatusValue = agentStatusCmd.Arg("status", "Status (online, offline, working)").Required().String()

	statsCmd = app.Command("stats", "Show team statistics")

	// Chat and notifications
	chatCmd = app.Command("chat", "Team chat commands")

	chatSendCmd     = chatCmd.Command("send", "Send a chat message")
	chatSendContent = chatSendCmd.Arg("content", "Message content").Required().String()
	chatSendAgent   = chatSendCmd.Flag("agent", "Sender agent name").String()
	chatSendAs      = chatSendCmd.Flag("as", "Human sender display name").String()

	chatListCmd   = chatCmd.Command("list", "Show recent chat messages")
	chatListLimit = chatListCmd.Flag("limit", "Number of messages").Default("20").Int()

	notifyCmd     = app.Command("notify", "Send a direct notification")
	notifyTo      = notifyCmd.Arg("to", "Recipient agent name").Required().String()
	notifyContent = notifyCmd.Arg("content", "Notification content").Required().String()
	notifyFrom    = notifyCmd.Flag("from", "Sender agent name").String()

	inboxCmd   = app.Command("inbox", "Show pending notifications for an agent")
	inboxAgent = inboxCmd.Arg("agent", "Agent name").Required().String()

	// Usage and sync
	usageCmd = app.Command("usage", "Show usage by agent")

	syncCmd = app.Command("sync", "Trigger a Notion sync")

	activityCmd      = app.Command("activity", "Show the activity feed")
	activityCmdLimit = activityCmd.Flag("limit", "Number of entries").Default("20").Int()
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	client := newAPIClient()

	var err error
	switch command {
	case taskCreateCmd.FullCommand():
		err = runTaskCreate(client)
	case taskListCmd.FullCommand():
		err = runTaskList(client)
	case taskShowCmd.FullCommand():
		err = runTaskShow(client)
	case taskStatusCmd.FullCommand():
		err = runTaskStatus(client)
	case taskStartCmd.FullCommand():
		err = runTaskStart(client)
	case taskFinishCmd.FullCommand():
		err = runTaskFinish(client)
	case kanbanCmd.FullCommand():
		err = runKanban(client)
	case agentRegisterCmd.FullCommand():
		err = runAgentRegister(client)
	case agentListCmd.FullCommand():
		err = runAgentList(client)
	case agentStatusCmd.FullCommand():
		err = runAgentStatus(client)
	case statsCmd.FullCommand():
		err = runStats(client)
	case chatSendCmd.FullCommand():
		err = runChatSend(client)
	case chatListCmd.FullCommand():
		err = runChatList(client)
	case notifyCmd.FullCommand():
		err = runNotify(client)
	case inboxCmd.FullCommand():
		err = runInbox(client)
	case usageCmd.FullCommand():
		err = runUsage(client)
	case syncCmd.FullCommand():
		err = runSync(client)
	case activityCmd.FullCommand():
		err = runActivity(client)
	}
	if err != nil {
		red.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runTaskCreate(client *apiClient) error {
	resp, err := client.post("/api/tasks/create", map[string]any{
		"title":         *taskCreateTitle,
		"description":   *taskCreateDesc,
		"priority":      *taskCreatePriority,
		"assigneeNames": *taskCreateAssignees,
		"tags":          *taskCreateTags,
		"createdByName": *taskCreateBy,
	})
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runTaskList(client *apiClient) error {
	query := url.Values{}
	if *taskListStatus != "" {
		query.Set("status", *taskListStatus)
	}
	if *taskListAgent != "" {
		query.Set("agent", *taskListAgent)
	}
	path := "/api/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := client.get(path)
	if err != nil {
		return err
	}
	tasks, _ := resp["tasks"].([]any)
	if len(tasks) == 0 {
		faint.Println("no tasks")
		return nil
	}
	for _, raw := range tasks {
		t, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		printTaskLine(t)
	}
	return nil
}

func printTaskLine(t map[string]any) {
	number, _ := t["taskNumber"].(float64)
	status, _ := t["status"].(string)
	priority, _ := t["priority"].(string)
	fmt.Printf("#%-4d %-12s %-7s %s\n", int64(number), statusColor(status).Sprint(status), priority, t["title"])
}

func statusColor(status string) *color.Color {
	switch status {
	case "done":
		return green
	case "in_progress", "review":
		return yellow
	case "blocked":
		return red
	default:
		return faint
	}
}

func runTaskShow(client *apiClient) error {
	resp, err := client.get(fmt.Sprintf("/api/task/get?number=%d", *taskShowNumber))
	if err != nil {
		return err
	}
	t, ok := resp["task"].(map[string]any)
	if !ok {
		return fmt.Errorf("malformed response")
	}

	number, _ := t["taskNumber"].(float64)
	fmt.Printf("#%d %s\n", int64(number), t["title"])
	fmt.Printf("status:   %s\n", statusColor(t["status"].(string)).Sprint(t["status"]))
	fmt.Printf("priority: %s\n", t["priority"])
	if desc, ok := t["description"].(string); ok && desc != "" {
		fmt.Printf("\n%s\n", desc)
	}
	if assignees, ok := t["assignees"].([]any); ok && len(assignees) > 0 {
		names := make([]string, 0, len(assignees))
		for _, raw := range assignees {
			if a, ok := raw.(map[string]any); ok {
				names = append(names, fmt.Sprintf("%v", a["name"]))
			}
		}
		fmt.Printf("assignees: %s\n", strings.Join(names, ", "))
	}
	if comments, ok := t["comments"].([]any); ok && len(comments) > 0 {
		fmt.Println("\ncomments:")
		for _, raw := range comments {
			if c, ok := raw.(map[string]any); ok {
				name := c["agentName"]
				if name == nil || name == "" {
					name = c["senderName"]
				}
				fmt.Printf("  %s: %s\n", faint.Sprint(name), c["content"])
			}
		}
	}
	return nil
}

func runTaskStatus(client *apiClient) error {
	resp, err := client.get(fmt.Sprintf("/api/task/get?number=%d", *taskStatusNumber))
	if err != nil {
		return err
	}
	t := resp["task"].(map[string]any)

	resp, err = client.post("/api/tasks/update-status", map[string]any{
		"taskId":    t["id"],
		"status":    *taskStatusValue,
		"agentName": *taskStatusAgent,
	})
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runTaskStart(client *apiClient) error {
	resp, err := client.post("/api/task/start", map[string]any{
		"agentName":  *taskStartAgent,
		"taskNumber": *taskStartNumber,
	})
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runTaskFinish(client *apiClient) error {
	body := map[string]any{
		"agentName":    *taskFinishAgent,
		"moveToReview": *taskFinishReview,
	}
	if *taskFinishNumber != 0 {
		body["taskNumber"] = *taskFinishNumber
	}
	resp, err := client.post("/api/task/finish", body)
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runKanban(client *apiClient) error {
	resp, err := client.get("/api/tasks/kanban")
	if err != nil {
		return err
	}
	board, ok := resp["board"].(map[string]any)
	if !ok {
		return fmt.Errorf("malformed response")
	}
	for _, column := range []string{"inbox", "assigned", "in_progress", "review", "done", "blocked"} {
		tasks, _ := board[column].([]any)
		statusColor(column).Printf("%s (%d)\n", strings.ReplaceAll(column, "_", " "), len(tasks))
		for _, raw := range tasks {
			if t, ok := raw.(map[string]any); ok {
				number, _ := t["taskNumber"].(float64)
				fmt.Printf("  #%-4d %s\n", int64(number), t["title"])
			}
		}
	}
	return nil
}

func runAgentRegister(client *apiClient) error {
	resp, err := client.post("/api/agents/register", map[string]any{
		"name":  *agentRegisterName,
		"role":  *agentRegisterRole,
		"emoji": *agentRegisterEmoji,
		"level": *agentRegisterLevel,
	})
	if err != nil {
		return err
	}
	a := resp["agent"].(map[string]any)
	green.Printf("registered %s (%s)\n", a["name"], a["role"])
	return nil
}

func runAgentList(client *apiClient) error {
	resp, err := client.get("/api/agents")
	if err != nil {
		return err
	}
	agents, _ := resp["agents"].([]any)
	if len(agents) == 0 {
		faint.Println("no agents")
		return nil
	}
	for _, raw := range agents {
		a, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		status, _ := a["status"].(string)
		fmt.Printf("%-2v %-16v %-12v %s\n", a["emoji"], a["name"], a["role"], agentStatusColor(status).Sprint(status))
	}
	return nil
}

func agentStatusColor(status string) *color.Color {
	switch status {
	case "working":
		return yellow
	case "idle":
		return green
	default:
		return faint
	}
}

func runAgentStatus(client *apiClient) error {
	resp, err := client.post("/api/agents/status", map[string]any{
		"agentName": *agentStatusName,
		"status":    *agentStatusValue,
	})
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runStats(client *apiClient) error {
	resp, err := client.get("/api/agents/stats")
	if err != nil {
		return err
	}
	stats, ok := resp["stats"].(map[string]any)
	if !ok {
		return fmt.Errorf("malformed response")
	}
	for key, value := range stats {
		fmt.Printf("%s: %v\n", key, value)
	}
	return nil
}

func runChatSend(client *apiClient) error {
	if *chatSendAgent == "" && *chatSendAs == "" {
		return fmt.Errorf("provide --agent or --as")
	}
	_, err := client.post("/api/messages/create", map[string]any{
		"agentName":  *chatSendAgent,
		"senderName": *chatSendAs,
		"content":    *chatSendContent,
	})
	if err != nil {
		return err
	}
	green.Println("sent")
	return nil
}

func runChatList(client *apiClient) error {
	resp, err := client.get(fmt.Sprintf("/api/messages/chat?limit=%d", *chatListLimit))
	if err != nil {
		return err
	}
	messages, _ := resp["messages"].([]any)
	for _, raw := range messages {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("%s %s %s\n", m["agentEmoji"], faint.Sprintf("%v:", m["agentName"]), m["content"])
	}
	return nil
}

func runNotify(client *apiClient) error {
	resp, err := client.post("/api/notifications/create", map[string]any{
		"toAgent":   *notifyTo,
		"fromAgent": *notifyFrom,
		"content":   *notifyContent,
	})
	if err != nil {
		return err
	}
	green.Printf("%s\n", resp["message"])
	return nil
}

func runInbox(client *apiClient) error {
	resp, err := client.get("/api/notifications/pending?agent=" + url.QueryEscape(*inboxAgent))
	if err != nil {
		return err
	}
	notifications, _ := resp["notifications"].([]any)
	if len(notifications) == 0 {
		faint.Println("inbox empty")
		return nil
	}
	for _, raw := range notifications {
		if n, ok := raw.(map[string]any); ok {
			fmt.Printf("%s %s\n", yellow.Sprint("•"), n["content"])
		}
	}
	return nil
}

func runUsage(client *apiClient) error {
	resp, err := client.get("/api/usage/by-agent")
	if err != nil {
		return err
	}
	rows, _ := resp["byAgent"].([]any)
	for _, raw := range rows {
		u, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tokens, _ := u["totalTokens"].(float64)
		cost, _ := u["totalCost"].(float64)
		fmt.Printf("%-16v %10d tokens  $%.2f\n", u["name"], int64(tokens), cost)
	}
	return nil
}

func runSync(client *apiClient) error {
	resp, err := client.post("/api/sync/notion", map[string]any{})
	if err != nil {
		return err
	}
	if success, _ := resp["success"].(bool); !success {
		yellow.Printf("sync finished with errors: %v\n", resp["errors"])
		return nil
	}
	green.Printf("synced: %v tasks, %v agents\n", resp["tasksUpdated"], resp["agentsUpdated"])
	return nil
}

func runActivity(client *apiClient) error {
	resp, err := client.get(fmt.Sprintf("/api/activities?limit=%d", *activityCmdLimit))
	if err != nil {
		return err
	}
	entries, _ := resp["activities"].([]any)
	for _, raw := range entries {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("%s %s\n", faint.Sprintf("[%v]", e["type"]), e["message"])
	}
	return nil
}
