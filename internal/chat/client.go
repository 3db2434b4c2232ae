package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentdeck/internal/config"
)

// ChunkFunc receives one decoded text chunk as it arrives.
type ChunkFunc func(text string)

// wireMessage is the request-body message shape: role and content only.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client 对话代理的 HTTP 客户端 / Client talks to the chat proxy route.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(cfg config.ChatConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the message history and streams the reply. Decoded text chunks
// are delivered through onChunk as they arrive; the full reply text is
// returned once the stream closes.
func (c *Client) Send(ctx context.Context, history []Message, onChunk ChunkFunc) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("message history is empty")
	}
	wire := make([]wireMessage, 0, len(history))
	for _, msg := range history {
		wire = append(wire, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	body, err := json.Marshal(map[string]any{"messages": wire})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return "", fmt.Errorf("chat request failed: status=%d (read error: %v)", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("chat request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 2*1024*1024)
	for scanner.Scan() {
		text, ok, err := DecodeFrameLine(scanner.Text())
		if err != nil {
			// One bad frame does not kill the stream.
			continue
		}
		if !ok {
			continue
		}
		full.WriteString(text)
		if onChunk != nil {
			onChunk(text)
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read chat stream: %w", err)
	}
	return full.String(), nil
}
