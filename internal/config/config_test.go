package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadJSONCAndPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := t.TempDir()
	oldwd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	globalDir := filepath.Join(home, ".agentdeck")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	globalCfg := `{
  // global
  "backend": {"base_url": "http://global:8000"},
  "ui": {"mode": "tui"}
}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	projectCfg := `{
  "backend": {"base_url": "http://project:8000/"},
  "events": {"reconnect_initial_ms": 500, "reconnect_max_ms": 4000}
}`
	if err := os.WriteFile("agentdeck.config.json", []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://project:8000" {
		t.Fatalf("backend.base_url=%q", cfg.Backend.BaseURL)
	}
	if cfg.UI.Mode != "tui" {
		t.Fatalf("ui.mode=%q", cfg.UI.Mode)
	}
	if cfg.Events.ReconnectInitialMS != 500 || cfg.Events.ReconnectMaxMS != 4000 {
		t.Fatalf("events backoff=%d/%d", cfg.Events.ReconnectInitialMS, cfg.Events.ReconnectMaxMS)
	}
	// Events URL derives from the backend base when unset.
	if cfg.Events.URL != "http://project:8000/events" {
		t.Fatalf("events.url=%q", cfg.Events.URL)
	}
}

func TestEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DECK_BACKEND_URL", "http://env:9000")
	t.Setenv("DECK_SESSION_ID", "sess-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.BaseURL != "http://env:9000" {
		t.Fatalf("backend.base_url=%q", cfg.Backend.BaseURL)
	}
	if cfg.Agent.SessionID != "sess-env" {
		t.Fatalf("agent.session_id=%q", cfg.Agent.SessionID)
	}
}

func TestDefaultsEmbedLocalhost(t *testing.T) {
	cfg := Default()
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("backend default=%q", cfg.Backend.BaseURL)
	}
	if cfg.Events.URL != "http://localhost:8000/events" {
		t.Fatalf("events default=%q", cfg.Events.URL)
	}
	if cfg.Agent.BaseURL != "http://localhost:8002" {
		t.Fatalf("agent default=%q", cfg.Agent.BaseURL)
	}
}

func TestNormalizeBackoffOrdering(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := t.TempDir()
	oldwd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	cfgFile := `{"events": {"reconnect_initial_ms": 5000, "reconnect_max_ms": 1000}}`
	if err := os.WriteFile("agentdeck.config.json", []byte(cfgFile), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Events.ReconnectMaxMS < cfg.Events.ReconnectInitialMS {
		t.Fatalf("max backoff %d below initial %d", cfg.Events.ReconnectMaxMS, cfg.Events.ReconnectInitialMS)
	}
}
