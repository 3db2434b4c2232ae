package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agentdeck/internal/config"
)

// Client 封装任务后端的 REST 接口 / Client wraps the task backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- Todos ---

func (c *Client) ListTodos(ctx context.Context, sessionID string) ([]TodoItem, error) {
	path := "/api/todos"
	if strings.TrimSpace(sessionID) != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var out []TodoItem
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTodo(ctx context.Context, fields TodoFields) (TodoItem, error) {
	var out TodoItem
	if err := c.do(ctx, http.MethodPost, "/api/todos", fields, &out); err != nil {
		return TodoItem{}, err
	}
	return out, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, fields TodoFields) (TodoItem, error) {
	var out TodoItem
	if err := c.do(ctx, http.MethodPut, "/api/todos/"+url.PathEscape(id), fields, &out); err != nil {
		return TodoItem{}, err
	}
	return out, nil
}

// ToggleTodo flips the completed flag server-side; no request body.
func (c *Client) ToggleTodo(ctx context.Context, id string) (TodoItem, error) {
	var out TodoItem
	if err := c.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id)+"/toggle", nil, &out); err != nil {
		return TodoItem{}, err
	}
	return out, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
}

// --- Plans ---

func (c *Client) ListPlans(ctx context.Context, sessionID string) ([]PlanItem, error) {
	path := "/api/plans"
	if strings.TrimSpace(sessionID) != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}
	var out []PlanItem
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePlan(ctx context.Context, fields PlanFields) (PlanItem, error) {
	var out PlanItem
	if err := c.do(ctx, http.MethodPost, "/api/plans", fields, &out); err != nil {
		return PlanItem{}, err
	}
	return out, nil
}

func (c *Client) UpdatePlan(ctx context.Context, id string, fields PlanFields) (PlanItem, error) {
	var out PlanItem
	if err := c.do(ctx, http.MethodPut, "/api/plans/"+url.PathEscape(id), fields, &out); err != nil {
		return PlanItem{}, err
	}
	return out, nil
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/plans/"+url.PathEscape(id), nil, nil)
}

// --- Backlogs ---

func (c *Client) ListBacklogs(ctx context.Context) ([]BacklogItem, error) {
	var out []BacklogItem
	if err := c.do(ctx, http.MethodGet, "/api/backlogs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBacklog(ctx context.Context, fields BacklogFields) (BacklogItem, error) {
	var out BacklogItem
	if err := c.do(ctx, http.MethodPost, "/api/backlogs", fields, &out); err != nil {
		return BacklogItem{}, err
	}
	return out, nil
}

func (c *Client) UpdateBacklog(ctx context.Context, id string, fields BacklogFields) (BacklogItem, error) {
	var out BacklogItem
	if err := c.do(ctx, http.MethodPut, "/api/backlogs/"+url.PathEscape(id), fields, &out); err != nil {
		return BacklogItem{}, err
	}
	return out, nil
}

func (c *Client) DeleteBacklog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/backlogs/"+url.PathEscape(id), nil, nil)
}

// SendBacklogToTodo 将 backlog 晋升为 todo（后端创建 todo 并删除 backlog）
// SendBacklogToTodo promotes a backlog item into a todo; the backend creates the
// todo and deletes the backlog, emitting events for both.
func (c *Client) SendBacklogToTodo(ctx context.Context, id string) (TodoItem, error) {
	var out TodoItem
	if err := c.do(ctx, http.MethodPost, "/api/backlogs/"+url.PathEscape(id)+"/send-to-todo", nil, &out); err != nil {
		return TodoItem{}, err
	}
	return out, nil
}

// --- Approvals ---

func (c *Client) ListApprovals(ctx context.Context) ([]Approval, error) {
	var out []Approval
	if err := c.do(ctx, http.MethodGet, "/api/approvals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRequest 批准请求；响应是 {success, message, approval} 包装
// ApproveRequest approves a pending request. The endpoint wraps the record in
// {success, message, approval} rather than returning it bare.
func (c *Client) ApproveRequest(ctx context.Context, id string) (Approval, error) {
	var out ApprovalResult
	if err := c.do(ctx, http.MethodPost, "/api/approvals/"+url.PathEscape(id)+"/approve", nil, &out); err != nil {
		return Approval{}, err
	}
	return out.Approval, nil
}

func (c *Client) RejectRequest(ctx context.Context, id string) (Approval, error) {
	var out ApprovalResult
	if err := c.do(ctx, http.MethodPost, "/api/approvals/"+url.PathEscape(id)+"/reject", nil, &out); err != nil {
		return Approval{}, err
	}
	return out.Approval, nil
}

func (c *Client) DeleteApproval(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/approvals/"+url.PathEscape(id), nil, nil)
}

// --- Code interpreter ---

func (c *Client) ListInterpreterStates(ctx context.Context) ([]CodeInterpreterState, error) {
	var out []CodeInterpreterState
	if err := c.do(ctx, http.MethodGet, "/api/code-interpreter/states", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInterpreterState(ctx context.Context, id string) (CodeInterpreterState, error) {
	var out CodeInterpreterState
	if err := c.do(ctx, http.MethodGet, "/api/code-interpreter/states/"+url.PathEscape(id), nil, &out); err != nil {
		return CodeInterpreterState{}, err
	}
	return out, nil
}

// --- Files ---

// ListFiles returns the flat file listing; callers rebuild the tree.
func (c *Client) ListFiles(ctx context.Context) ([]FileRecord, error) {
	var out []FileRecord
	if err := c.do(ctx, http.MethodGet, "/api/files", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Plumbing ---

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("%s %s failed: status=%d (read error: %v)", method, path, resp.StatusCode, readErr)
		}
		return fmt.Errorf("%s %s failed: status=%d body=%s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
