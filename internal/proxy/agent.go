package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentdeck/internal/chat"
	"agentdeck/internal/config"
)

// AgentUpstream 调用 ADK 风格 agent 的 /run_sse 接口
// AgentUpstream calls an ADK-style agent's /run_sse endpoint and flattens the
// streamed events into one reply.
type AgentUpstream struct {
	baseURL    string
	appName    string
	userID     string
	sessionID  string
	httpClient *http.Client
}

type runSSERequest struct {
	AppName    string        `json:"appName"`
	UserID     string        `json:"userId"`
	SessionID  string        `json:"sessionId"`
	NewMessage runSSEMessage `json:"newMessage"`
	Streaming  bool          `json:"streaming"`
}

type runSSEMessage struct {
	Parts []runSSEPart `json:"parts"`
	Role  string       `json:"role"`
}

type runSSEPart struct {
	Text string `json:"text"`
}

func NewAgentUpstream(cfg config.AgentConfig) *AgentUpstream {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AgentUpstream{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appName:    cfg.AppName,
		userID:     cfg.UserID,
		sessionID:  cfg.SessionID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reply forwards the user text in the fixed request envelope and parses the
// agent's response body, whatever shape it arrives in.
func (u *AgentUpstream) Reply(ctx context.Context, userText string) (string, error) {
	payload := runSSERequest{
		AppName:   u.appName,
		UserID:    u.userID,
		SessionID: u.sessionID,
		NewMessage: runSSEMessage{
			Parts: []runSSEPart{{Text: userText}},
			Role:  chat.RoleUser,
		},
		Streaming: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/run_sse", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send agent request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("agent request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return chat.ExtractResponseText(string(raw))
}
