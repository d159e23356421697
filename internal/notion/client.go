package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/missionhq/missionctl/internal/agent"
	"github.com/missionhq/missionctl/internal/task"
	"github.com/missionhq/missionctl/pkg/cerr"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// taskNumberRE extracts the numeric task ID from rich text like "#014".
var taskNumberRE = regexp.MustCompile(`#(\d+)`)

// statusMap translates board status select names. Unknown names fall
// back to inbox.
var statusMap = map[string]task.Status{
	"Inbox":       task.StatusInbox,
	"Assigned":    task.StatusAssigned,
	"In Progress": task.StatusInProgress,
	"Done":        task.StatusDone,
	"Blocked":     task.StatusBlocked,
}

// priorityMap translates the Portuguese priority select names. Unknown
// names fall back to medium.
var priorityMap = map[string]task.Priority{
	"Alta":  task.PriorityHigh,
	"Média": task.PriorityMedium,
	"Baixa": task.PriorityLow,
}

// agentStatusMap translates agent presence select names. Unknown names
// fall back to offline.
var agentStatusMap = map[string]agent.Status{
	"Online":  agent.StatusIdle,
	"Offline": agent.StatusOffline,
	"Working": agent.StatusWorking,
}

// RemoteTask is a task row as read from the remote database.
type RemoteTask struct {
	PageID      string
	TaskNumber  int64
	Title       string
	Description string
	Status      task.Status
	Priority    task.Priority
	Assignee    string
	Tags        []string
}

// RemoteAgent is an agent row as read from the remote database.
type RemoteAgent struct {
	PageID      string
	Name        string
	Status      agent.Status
	CurrentTask string
}

// Client queries two Notion databases, one for tasks and one for
// agents, and maps their select values to internal enums.
type Client struct {
	baseURL    string
	token      string
	tasksDB    string
	agentsDB   string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different API host. Used in tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(token, tasksDB, agentsDB string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		tasksDB:    tasksDB,
		agentsDB:   agentsDB,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notion database query wire format, reduced to the fields we read.
type queryResponse struct {
	Results []page `json:"results"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Title       []richText     `json:"title"`
	RichText    []richText     `json:"rich_text"`
	Select      *selectOption  `json:"select"`
	MultiSelect []selectOption `json:"multi_select"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type selectOption struct {
	Name string `json:"name"`
}

func (p property) plainText() string {
	if len(p.Title) > 0 {
		return p.Title[0].PlainText
	}
	if len(p.RichText) > 0 {
		return p.RichText[0].PlainText
	}
	return ""
}

func (p property) selectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

// FetchTasks queries the tasks database sorted by the ID column. Rows
// without a parsable "#NNN" ID are skipped.
func (c *Client) FetchTasks(ctx context.Context) ([]*RemoteTask, error) {
	body := map[string]any{
		"sorts": []map[string]string{{"property": "ID", "direction": "ascending"}},
	}
	resp, err := c.queryDatabase(ctx, c.tasksDB, body)
	if err != nil {
		return nil, err
	}

	tasks := make([]*RemoteTask, 0, len(resp.Results))
	for _, pg := range resp.Results {
		props := pg.Properties

		match := taskNumberRE.FindStringSubmatch(props["ID"].plainText())
		if match == nil {
			continue
		}
		number, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil || number == 0 {
			continue
		}

		title := props["Nome"].plainText()
		if title == "" {
			title = "Untitled"
		}

		status, ok := statusMap[props["Status"].selectName()]
		if !ok {
			status = task.StatusInbox
		}
		priority, ok := priorityMap[props["Prioridade"].selectName()]
		if !ok {
			priority = task.PriorityMedium
		}

		var tags []string
		for _, t := range props["Tags"].MultiSelect {
			tags = append(tags, t.Name)
		}

		tasks = append(tasks, &RemoteTask{
			PageID:      pg.ID,
			TaskNumber:  number,
			Title:       title,
			Description: props["Descrição"].plainText(),
			Status:      status,
			Priority:    priority,
			Assignee:    props["Responsável"].selectName(),
			Tags:        tags,
		})
	}
	return tasks, nil
}

// FetchAgents queries the agents database. Rows without a name are
// skipped.
func (c *Client) FetchAgents(ctx context.Context) ([]*RemoteAgent, error) {
	resp, err := c.queryDatabase(ctx, c.agentsDB, map[string]any{})
	if err != nil {
		return nil, err
	}

	agents := make([]*RemoteAgent, 0, len(resp.Results))
	for _, pg := range resp.Results {
		props := pg.Properties

		name := props["Nome"].plainText()
		if name == "" {
			continue
		}

		status, ok := agentStatusMap[props["Status"].selectName()]
		if !ok {
			status = agent.StatusOffline
		}

		agents = append(agents, &RemoteAgent{
			PageID:      pg.ID,
			Name:        name,
			Status:      status,
			CurrentTask: props["Tarefa Atual"].plainText(),
		})
	}
	return agents, nil
}

func (c *Client) queryDatabase(ctx context.Context, databaseID string, body map[string]any) (*queryResponse, error) {
	if c.token == "" {
		return nil, cerr.NewError(cerr.FailedPrecondition, "notion token not configured", nil)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal notion query: %w", err))
	}

	url := fmt.Sprintf("%s/v1/databases/%s/query", c.baseURL, databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to build notion request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, cerr.NewError(cerr.Unavailable, "notion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, cerr.NewError(cerr.Unavailable, fmt.Sprintf("notion API error: %d", resp.StatusCode), nil)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to decode notion response: %w", err))
	}
	return &result, nil
}
