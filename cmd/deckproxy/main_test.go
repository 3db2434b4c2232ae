package main

import (
	"testing"

	"agentdeck/internal/config"
	"agentdeck/internal/proxy"
)

func TestSelectUpstreamDefaultsToAgent(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Upstream = ""

	up, err := selectUpstream(cfg)
	if err != nil {
		t.Fatalf("selectUpstream: %v", err)
	}
	if _, ok := up.(*proxy.AgentUpstream); !ok {
		t.Fatalf("expected agent upstream, got %T", up)
	}
}

func TestSelectUpstreamOpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Upstream = "openai"
	cfg.Proxy.OpenAI.APIKey = "sk-test"

	up, err := selectUpstream(cfg)
	if err != nil {
		t.Fatalf("selectUpstream: %v", err)
	}
	if _, ok := up.(*proxy.OpenAIUpstream); !ok {
		t.Fatalf("expected openai upstream, got %T", up)
	}
}

func TestSelectUpstreamRejectsUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Upstream = "llama"

	if _, err := selectUpstream(cfg); err == nil {
		t.Fatal("expected error for unknown upstream")
	}
}
