package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"agentdeck/internal/config"
	"agentdeck/internal/proxy"
	"agentdeck/internal/storage"
)

func main() {
	var (
		configPath string
		listen     string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.StringVar(&listen, "listen", "", "Listen address override")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(listen) != "" {
		cfg.Proxy.Listen = strings.TrimSpace(listen)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	upstream, err := selectUpstream(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure upstream failed: %v\n", err)
		os.Exit(1)
	}

	var store storage.Store
	if baseDir, dirErr := config.ExpandPath(cfg.Storage.BaseDir); dirErr == nil {
		st, openErr := storage.NewSQLiteStore(filepath.Join(baseDir, "deck.db"))
		if openErr != nil {
			logger.Warn("transcript store unavailable", "error", openErr)
		} else {
			store = st
			defer st.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting deckproxy",
		"listen", cfg.Proxy.Listen,
		"upstream", cfg.Proxy.Upstream,
	)

	srv := proxy.New(cfg.Proxy, upstream, store, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("deckproxy stopped")
}

// selectUpstream 根据配置选择上游 / selectUpstream picks where chat turns are
// answered: the ADK-style agent API or an OpenAI-compatible endpoint.
func selectUpstream(cfg config.Config) (proxy.Upstream, error) {
	switch strings.TrimSpace(cfg.Proxy.Upstream) {
	case "", "agent":
		return proxy.NewAgentUpstream(cfg.Agent), nil
	case "openai":
		return proxy.NewOpenAIUpstream(cfg.Proxy.OpenAI), nil
	default:
		return nil, fmt.Errorf("unknown upstream %q (want \"agent\" or \"openai\")", cfg.Proxy.Upstream)
	}
}
