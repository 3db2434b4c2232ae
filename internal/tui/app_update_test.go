package tui

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"agentdeck/internal/api"
	"agentdeck/internal/chat"
	"agentdeck/internal/config"
	"agentdeck/internal/events"
	"agentdeck/internal/store"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{})
	}))
	t.Cleanup(srv.Close)

	client := api.NewClient(config.BackendConfig{BaseURL: srv.URL, TimeoutMS: 2000})
	return Deps{
		Todos:       store.NewTodoStore(client),
		Plans:       store.NewPlanStore(client),
		Backlogs:    store.NewBacklogStore(client),
		Approvals:   store.NewApprovalStore(client),
		Interpreter: store.NewInterpreterStore(client),
		Files:       store.NewFileStore(client),
		Chat:        chat.NewService(config.ChatConfig{URL: srv.URL, TimeoutMS: 2000}),
		SessionID:   "default_session",
	}
}

func updated(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	model, _ := a.Update(msg)
	next, ok := model.(App)
	if !ok {
		t.Fatalf("Update returned %T", model)
	}
	return next
}

func TestTabCyclesPanels(t *testing.T) {
	a := NewApp(newTestDeps(t))
	a = updated(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})

	if a.activePanel != PanelChat {
		t.Fatalf("initial panel=%d", a.activePanel)
	}
	for i := 0; i < panelCount; i++ {
		a = updated(t, a, tea.KeyMsg{Type: tea.KeyTab})
	}
	if a.activePanel != PanelChat {
		t.Fatalf("tab did not cycle back, panel=%d", a.activePanel)
	}
}

func TestConnStateShowsInStatusBar(t *testing.T) {
	a := NewApp(newTestDeps(t))
	a = updated(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})

	a = updated(t, a, ConnStateMsg{Connected: true})
	if !strings.Contains(a.View(), "Connected") {
		t.Fatal("status bar missing connected state")
	}

	a = updated(t, a, ConnStateMsg{Connected: false, Err: "connection refused"})
	if !strings.Contains(a.View(), "connection refused") {
		t.Fatal("status bar missing disconnect reason")
	}
}

func TestEventMsgAppendsLog(t *testing.T) {
	a := NewApp(newTestDeps(t))
	a = updated(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a = updated(t, a, EventMsg{Event: events.Event{Name: "todo_added"}})

	if !strings.Contains(a.logContent.String(), "todo_added") {
		t.Fatalf("log=%q", a.logContent.String())
	}
}

func TestChatDoneResetsStreaming(t *testing.T) {
	a := NewApp(newTestDeps(t))
	a = updated(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a.streaming = true

	a = updated(t, a, ChatDoneMsg{Err: errors.New("boom")})
	if a.streaming {
		t.Fatal("streaming flag not cleared")
	}
	if !strings.Contains(a.logContent.String(), "boom") {
		t.Fatal("error not logged")
	}
}

func TestEscInterruptsStreaming(t *testing.T) {
	a := NewApp(newTestDeps(t))
	a = updated(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a.streaming = true

	a = updated(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	if a.streaming {
		t.Fatal("esc must interrupt streaming")
	}
}

func TestQuitOnCtrlC(t *testing.T) {
	a := NewApp(newTestDeps(t))
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c must produce a quit command")
	}
}
