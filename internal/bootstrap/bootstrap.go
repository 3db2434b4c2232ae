// Package bootstrap 负责把配置装配成可运行的控制台依赖图。
// Package bootstrap assembles the configuration into the console's runtime
// dependency graph: REST client, event bus and stream, resource stores, chat
// service, and transcript storage.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"agentdeck/internal/api"
	"agentdeck/internal/chat"
	"agentdeck/internal/config"
	"agentdeck/internal/events"
	"agentdeck/internal/i18n"
	"agentdeck/internal/storage"
	"agentdeck/internal/store"
)

// Runtime holds every wired dependency of a running console.
type Runtime struct {
	Config *config.Config
	Client *api.Client
	Bus    *events.Bus
	Stream *events.Stream

	Todos       *store.TodoStore
	Plans       *store.PlanStore
	Backlogs    *store.BacklogStore
	Approvals   *store.ApprovalStore
	Interpreter *store.InterpreterStore
	Files       *store.FileStore

	Chat  *chat.Service
	Store storage.Store

	SessionID string
}

// Options tweaks assembly for different front ends.
type Options struct {
	// Logf receives stream diagnostics; nil discards them.
	Logf func(format string, args ...any)
	// DisableStorage skips opening the sqlite transcript store.
	DisableStorage bool
}

// Build wires a Runtime from configuration. The event stream is created but
// not started; call Start to begin receiving pushes.
func Build(cfg *config.Config, opts Options) (*Runtime, error) {
	i18n.Init(cfg.UI.Locale)

	client := api.NewClient(cfg.Backend)
	bus := events.NewBus()
	stream := events.NewStream(cfg.Events, bus, opts.Logf)

	rt := &Runtime{
		Config:      cfg,
		Client:      client,
		Bus:         bus,
		Stream:      stream,
		Todos:       store.NewTodoStore(client),
		Plans:       store.NewPlanStore(client),
		Backlogs:    store.NewBacklogStore(client),
		Approvals:   store.NewApprovalStore(client),
		Interpreter: store.NewInterpreterStore(client),
		Files:       store.NewFileStore(client),
		Chat:        chat.NewService(cfg.Chat),
		SessionID:   cfg.Agent.SessionID,
	}

	rt.Todos.Bind(bus)
	rt.Plans.Bind(bus)
	rt.Backlogs.Bind(bus)
	rt.Approvals.Bind(bus)
	rt.Interpreter.Bind(bus)
	rt.Files.Bind(bus, func() {
		_ = rt.Files.Fetch(context.Background())
	})

	if !opts.DisableStorage {
		baseDir, err := config.ExpandPath(cfg.Storage.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("resolve storage dir: %w", err)
		}
		st, err := storage.NewSQLiteStore(filepath.Join(baseDir, "deck.db"))
		if err != nil {
			return nil, fmt.Errorf("open transcript store: %w", err)
		}
		rt.Store = st
	}

	return rt, nil
}

// Start launches the event stream and performs the initial fetch of every
// resource. Fetch failures are not fatal; stores keep their error state and
// the stream keeps reconnecting.
func (rt *Runtime) Start(ctx context.Context) {
	go rt.Stream.Run(ctx)

	sessionID := rt.SessionID
	go func() {
		_ = rt.Todos.Fetch(ctx, sessionID)
		_ = rt.Plans.Fetch(ctx, sessionID)
		_ = rt.Backlogs.Fetch(ctx)
		_ = rt.Approvals.Fetch(ctx)
		_ = rt.Interpreter.Fetch(ctx)
		_ = rt.Files.Fetch(ctx)
	}()
}

// AttachSession binds the chat service to a stored session: history is
// restored and finalized messages are persisted as the conversation grows.
func (rt *Runtime) AttachSession(meta storage.SessionMeta) error {
	if rt.Store == nil {
		return nil
	}
	if _, err := rt.Store.LoadSession(meta.ID); err != nil {
		if createErr := rt.Store.CreateSession(meta); createErr != nil {
			return fmt.Errorf("create session: %w", createErr)
		}
	}
	messages, err := rt.Store.LoadMessages(meta.ID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	rt.Chat.Restore(messages)
	sessionID := meta.ID
	rt.Chat.SetOnPersist(func(msg chat.Message) {
		_ = rt.Store.AppendMessage(sessionID, msg)
	})
	return nil
}

// Close releases held resources.
func (rt *Runtime) Close() error {
	if rt.Store != nil {
		return rt.Store.Close()
	}
	return nil
}
