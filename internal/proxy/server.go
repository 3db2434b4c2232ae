// Package proxy 对话代理服务：把浏览器/控制台的聊天请求适配为上游 agent API 的形状。
// Package proxy adapts chat requests from the console to the upstream agent
// API, and reshapes the agent's SSE/JSON reply into the line frame protocol
// the streaming consumer expects.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"agentdeck/internal/config"
	"agentdeck/internal/storage"
)

// Upstream produces one assistant reply for the latest user message.
type Upstream interface {
	Reply(ctx context.Context, userText string) (string, error)
}

// Server is the chat proxy HTTP server.
type Server struct {
	cfg       config.ProxyConfig
	upstream  Upstream
	store     storage.Store
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a proxy server. store may be nil to disable session endpoints.
func New(cfg config.ProxyConfig, upstream Upstream, store storage.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		upstream:  upstream,
		store:     store,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start runs the server until ctx is cancelled (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // chat replies stream
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("proxy starting", "listen", s.cfg.Listen, "upstream", s.cfg.Upstream)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("proxy shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/sessions", s.handleListSessions)
	r.Get("/api/chat/sessions/{session_id}", s.handleGetSession)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
