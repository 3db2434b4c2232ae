package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentdeck/internal/api"
	"agentdeck/internal/config"
	"agentdeck/internal/events"
)

func newTodoBackend(t *testing.T, todos []api.TodoItem) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/todos", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(todos)
		case http.MethodPost:
			var fields api.TodoFields
			_ = json.NewDecoder(r.Body).Decode(&fields)
			_ = json.NewEncoder(w).Encode(api.TodoItem{ID: "t-new", Title: fields.Title})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClientFor(srv *httptest.Server) *api.Client {
	return api.NewClient(config.BackendConfig{BaseURL: srv.URL, TimeoutMS: 5000})
}

func mustEvent(t *testing.T, name string, payload any) events.Event {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return events.Event{Name: name, Data: data}
}

func TestFetchReplacesListInServerOrder(t *testing.T) {
	server := newTodoBackend(t, []api.TodoItem{
		{ID: "t1", Title: "first"},
		{ID: "t2", Title: "second"},
		{ID: "t3", Title: "third"},
	})
	s := NewTodoStore(newClientFor(server))

	// Pre-existing local state must be fully replaced.
	s.HandleEvent(mustEvent(t, "todo_added", map[string]any{"todo": api.TodoItem{ID: "old", Title: "stale"}}))

	if err := s.Fetch(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	got := s.Todos()
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if got[i].ID != want {
			t.Fatalf("order[%d]=%s want %s", i, got[i].ID, want)
		}
	}
}

func TestFetchFailureKeepsPreviousList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := NewTodoStore(newClientFor(srv))
	s.HandleEvent(mustEvent(t, "todo_added", map[string]any{"todo": api.TodoItem{ID: "kept"}}))

	if err := s.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected fetch error")
	}
	if got := s.Todos(); len(got) != 1 || got[0].ID != "kept" {
		t.Fatalf("previous list not kept: %+v", got)
	}
	if s.Err() == "" {
		t.Fatal("error not surfaced")
	}
}

func TestAddedEventDeduplicatesByID(t *testing.T) {
	s := NewTodoStore(nil)
	ev := mustEvent(t, "todo_added", map[string]any{"todo": api.TodoItem{ID: "t1", Title: "buy milk"}})
	s.HandleEvent(ev)
	s.HandleEvent(ev)

	got := s.Todos()
	if len(got) != 1 {
		t.Fatalf("duplicate todo_added produced %d entries", len(got))
	}
	if got[0].ID != "t1" {
		t.Fatalf("id=%s", got[0].ID)
	}
}

// Push payloads carry the backend's epoch-millisecond timestamps; they must
// decode, not drop the event.
func TestAddedEventDecodesEpochTimestamps(t *testing.T) {
	s := NewTodoStore(nil)
	s.HandleEvent(events.Event{
		Name: "todo_added",
		Data: []byte(`{"todo":{"id":"t9","title":"buy milk","completed":false,"created_at":1700000000000,"updated_at":1700000001234}}`),
	})

	got := s.Todos()
	if len(got) != 1 {
		t.Fatalf("event dropped, todos=%d", len(got))
	}
	if got[0].CreatedAt != 1700000000000 || got[0].UpdatedAt != 1700000001234 {
		t.Fatalf("timestamps: %+v", got[0])
	}
}

func TestDeletedEventRemovesExactlyOne(t *testing.T) {
	s := NewTodoStore(nil)
	s.HandleEvent(mustEvent(t, "todo_list", map[string]any{"todos": []api.TodoItem{
		{ID: "t1"}, {ID: "t2"}, {ID: "t3"},
	}}))

	s.HandleEvent(mustEvent(t, "todo_deleted", map[string]any{"todoId": "t2"}))

	got := s.Todos()
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	for _, item := range got {
		if item.ID == "t2" {
			t.Fatal("t2 still present")
		}
	}
}

func TestUpdatedEventReplacesByID(t *testing.T) {
	s := NewTodoStore(nil)
	s.HandleEvent(mustEvent(t, "todo_list", map[string]any{"todos": []api.TodoItem{
		{ID: "t1", Title: "old"},
	}}))
	s.HandleEvent(mustEvent(t, "todo_updated", map[string]any{"todo": api.TodoItem{ID: "t1", Title: "new", Completed: true}}))

	got := s.Todos()
	if len(got) != 1 || got[0].Title != "new" || !got[0].Completed {
		t.Fatalf("replace failed: %+v", got)
	}
}

// Add issues the POST but the list only changes when the push event arrives.
func TestAddIsEventDriven(t *testing.T) {
	server := newTodoBackend(t, nil)
	bus := events.NewBus()
	s := NewTodoStore(newClientFor(server))
	s.Bind(bus)

	if err := s.Add(context.Background(), api.TodoFields{Title: "buy milk"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Todos(); len(got) != 0 {
		t.Fatalf("optimistic insert detected: %+v", got)
	}

	bus.Publish(mustEvent(t, "todo_added", map[string]any{"todo": api.TodoItem{ID: "t-new", Title: "buy milk"}}))

	got := s.Todos()
	if len(got) != 1 || got[0].Title != "buy milk" || got[0].Completed {
		t.Fatalf("event-driven insert failed: %+v", got)
	}
}

func TestMalformedEventPayloadIsDropped(t *testing.T) {
	s := NewTodoStore(nil)
	s.HandleEvent(events.Event{Name: "todo_added", Data: []byte(`{"todo": "not-an-object"`)})
	if got := s.Todos(); len(got) != 0 {
		t.Fatalf("malformed payload mutated list: %+v", got)
	}
}

func TestStats(t *testing.T) {
	s := NewTodoStore(nil)
	s.HandleEvent(mustEvent(t, "todo_list", map[string]any{"todos": []api.TodoItem{
		{ID: "t1", Completed: true},
		{ID: "t2"},
		{ID: "t3", Completed: true},
	}}))
	done, total := s.Stats()
	if done != 2 || total != 3 {
		t.Fatalf("stats=%d/%d", done, total)
	}
}
