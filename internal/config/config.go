package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BackendConfig 任务后端 REST 接口配置 / BackendConfig targets the task backend REST API.
type BackendConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

// EventsConfig targets the backend's SSE endpoint.
type EventsConfig struct {
	URL                string `json:"url"`
	ReconnectInitialMS int    `json:"reconnect_initial_ms"`
	ReconnectMaxMS     int    `json:"reconnect_max_ms"`
}

// ChatConfig targets the chat proxy endpoint the console talks to.
type ChatConfig struct {
	URL               string `json:"url"`
	TimeoutMS         int    `json:"timeout_ms"`
	HistoryTokenLimit int    `json:"history_token_limit"`
}

// AgentConfig targets the upstream agent API the proxy forwards to.
type AgentConfig struct {
	BaseURL   string `json:"base_url"`
	AppName   string `json:"app_name"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	TimeoutMS int    `json:"timeout_ms"`
}

// OpenAIConfig configures the proxy's OpenAI-compatible alternate upstream.
type OpenAIConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// ProxyConfig configures the chat proxy service.
// Upstream selects where chat is answered: "agent" (the ADK-style agent API)
// or "openai" (an OpenAI-compatible endpoint).
type ProxyConfig struct {
	Listen   string       `json:"listen"`
	Upstream string       `json:"upstream"`
	OpenAI   OpenAIConfig `json:"openai"`
}

// StorageConfig locates local persistence (session transcripts, history).
type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

// UIConfig selects the console front end.
type UIConfig struct {
	Mode   string `json:"mode"` // "repl" or "tui"
	Locale string `json:"locale"`
}

type Config struct {
	Backend BackendConfig `json:"backend"`
	Events  EventsConfig  `json:"events"`
	Chat    ChatConfig    `json:"chat"`
	Agent   AgentConfig   `json:"agent"`
	Proxy   ProxyConfig   `json:"proxy"`
	Storage StorageConfig `json:"storage"`
	UI      UIConfig      `json:"ui"`
}

type fileConfig struct {
	Backend *BackendConfig `json:"backend"`
	Events  *EventsConfig  `json:"events"`
	Chat    *ChatConfig    `json:"chat"`
	Agent   *AgentConfig   `json:"agent"`
	Proxy   *ProxyConfig   `json:"proxy"`
	Storage *StorageConfig `json:"storage"`
	UI      *UIConfig      `json:"ui"`
}

func Default() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8000",
			TimeoutMS: 30000,
		},
		Events: EventsConfig{
			URL:                "http://localhost:8000/events",
			ReconnectInitialMS: 3000,
			ReconnectMaxMS:     30000,
		},
		Chat: ChatConfig{
			URL:               "http://localhost:3000/api/chat",
			TimeoutMS:         120000,
			HistoryTokenLimit: 24000,
		},
		Agent: AgentConfig{
			BaseURL:   "http://localhost:8002",
			AppName:   "representation",
			UserID:    "demo",
			SessionID: "default_session",
			TimeoutMS: 120000,
		},
		Proxy: ProxyConfig{
			Listen:   ":3000",
			Upstream: "agent",
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
		},
		Storage: StorageConfig{
			BaseDir: "~/.agentdeck",
		},
		UI: UIConfig{
			Mode: "repl",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("DECK_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".agentdeck", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"agentdeck.config.json",
		".agentdeck/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Backend != nil {
		cfg.Backend = mergeBackend(cfg.Backend, *fc.Backend)
	}
	if fc.Events != nil {
		cfg.Events = mergeEvents(cfg.Events, *fc.Events)
	}
	if fc.Chat != nil {
		cfg.Chat = mergeChat(cfg.Chat, *fc.Chat)
	}
	if fc.Agent != nil {
		cfg.Agent = mergeAgent(cfg.Agent, *fc.Agent)
	}
	if fc.Proxy != nil {
		cfg.Proxy = mergeProxy(cfg.Proxy, *fc.Proxy)
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.BaseDir) != "" {
			cfg.Storage.BaseDir = fc.Storage.BaseDir
		}
	}
	if fc.UI != nil {
		if strings.TrimSpace(fc.UI.Mode) != "" {
			cfg.UI.Mode = fc.UI.Mode
		}
		if strings.TrimSpace(fc.UI.Locale) != "" {
			cfg.UI.Locale = fc.UI.Locale
		}
	}
}

func mergeBackend(base, override BackendConfig) BackendConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	return base
}

func mergeEvents(base, override EventsConfig) EventsConfig {
	if strings.TrimSpace(override.URL) != "" {
		base.URL = override.URL
	}
	if override.ReconnectInitialMS > 0 {
		base.ReconnectInitialMS = override.ReconnectInitialMS
	}
	if override.ReconnectMaxMS > 0 {
		base.ReconnectMaxMS = override.ReconnectMaxMS
	}
	return base
}

func mergeChat(base, override ChatConfig) ChatConfig {
	if strings.TrimSpace(override.URL) != "" {
		base.URL = override.URL
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if override.HistoryTokenLimit > 0 {
		base.HistoryTokenLimit = override.HistoryTokenLimit
	}
	return base
}

func mergeAgent(base, override AgentConfig) AgentConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if strings.TrimSpace(override.AppName) != "" {
		base.AppName = override.AppName
	}
	if strings.TrimSpace(override.UserID) != "" {
		base.UserID = override.UserID
	}
	if strings.TrimSpace(override.SessionID) != "" {
		base.SessionID = override.SessionID
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	return base
}

func mergeProxy(base, override ProxyConfig) ProxyConfig {
	if strings.TrimSpace(override.Listen) != "" {
		base.Listen = override.Listen
	}
	if strings.TrimSpace(override.Upstream) != "" {
		base.Upstream = override.Upstream
	}
	if strings.TrimSpace(override.OpenAI.BaseURL) != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if strings.TrimSpace(override.OpenAI.Model) != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if strings.TrimSpace(override.OpenAI.APIKey) != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		cfg.Backend.BaseURL = def.Backend.BaseURL
	}
	if cfg.Backend.TimeoutMS <= 0 {
		cfg.Backend.TimeoutMS = def.Backend.TimeoutMS
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")

	if strings.TrimSpace(cfg.Events.URL) == "" {
		cfg.Events.URL = cfg.Backend.BaseURL + "/events"
	}
	if cfg.Events.ReconnectInitialMS <= 0 {
		cfg.Events.ReconnectInitialMS = def.Events.ReconnectInitialMS
	}
	if cfg.Events.ReconnectMaxMS < cfg.Events.ReconnectInitialMS {
		cfg.Events.ReconnectMaxMS = def.Events.ReconnectMaxMS
	}
	if cfg.Events.ReconnectMaxMS < cfg.Events.ReconnectInitialMS {
		cfg.Events.ReconnectMaxMS = cfg.Events.ReconnectInitialMS
	}

	if strings.TrimSpace(cfg.Chat.URL) == "" {
		cfg.Chat.URL = def.Chat.URL
	}
	if cfg.Chat.TimeoutMS <= 0 {
		cfg.Chat.TimeoutMS = def.Chat.TimeoutMS
	}
	if cfg.Chat.HistoryTokenLimit <= 0 {
		cfg.Chat.HistoryTokenLimit = def.Chat.HistoryTokenLimit
	}

	if strings.TrimSpace(cfg.Agent.BaseURL) == "" {
		cfg.Agent.BaseURL = def.Agent.BaseURL
	}
	cfg.Agent.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Agent.BaseURL), "/")
	if strings.TrimSpace(cfg.Agent.AppName) == "" {
		cfg.Agent.AppName = def.Agent.AppName
	}
	if strings.TrimSpace(cfg.Agent.UserID) == "" {
		cfg.Agent.UserID = def.Agent.UserID
	}
	if strings.TrimSpace(cfg.Agent.SessionID) == "" {
		cfg.Agent.SessionID = def.Agent.SessionID
	}
	if cfg.Agent.TimeoutMS <= 0 {
		cfg.Agent.TimeoutMS = def.Agent.TimeoutMS
	}

	if strings.TrimSpace(cfg.Proxy.Listen) == "" {
		cfg.Proxy.Listen = def.Proxy.Listen
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Proxy.Upstream)) {
	case "openai":
		cfg.Proxy.Upstream = "openai"
	default:
		cfg.Proxy.Upstream = "agent"
	}
	if strings.TrimSpace(cfg.Proxy.OpenAI.Model) == "" {
		cfg.Proxy.OpenAI.Model = def.Proxy.OpenAI.Model
	}

	switch strings.ToLower(strings.TrimSpace(cfg.UI.Mode)) {
	case "tui":
		cfg.UI.Mode = "tui"
	default:
		cfg.UI.Mode = "repl"
	}

	storageDir, err := ExpandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	if storageDir == "" {
		storageDir, err = ExpandPath(Default().Storage.BaseDir)
		if err != nil {
			return err
		}
	}
	cfg.Storage.BaseDir = storageDir
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("DECK_BACKEND_URL")); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_EVENTS_URL")); v != "" {
		cfg.Events.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_CHAT_URL")); v != "" {
		cfg.Chat.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_AGENT_URL")); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_SESSION_ID")); v != "" {
		cfg.Agent.SessionID = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_STORAGE_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("DECK_OPENAI_API_KEY")); v != "" {
		cfg.Proxy.OpenAI.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.Proxy.OpenAI.APIKey = v
	}
	return cfg, normalize(&cfg)
}

// ExpandPath resolves ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

// stripJSONComments 去掉 // 与 /* */ 注释，字符串内的内容保持原样
// stripJSONComments removes // and /* */ comments outside string literals.
func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
