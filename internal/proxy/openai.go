package proxy

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"agentdeck/internal/config"
)

// OpenAIUpstream 直连 OpenAI 兼容接口的备用上游
// OpenAIUpstream is the alternate upstream for deployments without an ADK
// agent: it answers through any OpenAI-compatible chat completion endpoint.
type OpenAIUpstream struct {
	client *openai.Client
	model  string
}

func NewOpenAIUpstream(cfg config.OpenAIConfig) *OpenAIUpstream {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIUpstream{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (u *OpenAIUpstream) Reply(ctx context.Context, userText string) (string, error) {
	resp, err := u.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: u.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var (
	_ Upstream = (*OpenAIUpstream)(nil)
	_ Upstream = (*AgentUpstream)(nil)
)
