package store

import (
	"context"
	"encoding/json"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// TodoStore owns the live todo list.
type TodoStore struct {
	client *api.Client

	mu      sync.Mutex
	todos   []api.TodoItem
	loading bool
	errMsg  string

	onChange func()
}

func NewTodoStore(client *api.Client) *TodoStore {
	return &TodoStore{client: client}
}

// Bind subscribes the store to push events.
func (s *TodoStore) Bind(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

// SetOnChange installs a notification hook invoked after every list change.
func (s *TodoStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type todoEventPayload struct {
	Todo   *api.TodoItem  `json:"todo"`
	TodoID string         `json:"todoId"`
	Todos  []api.TodoItem `json:"todos"`
}

// HandleEvent applies one push event to the local list.
func (s *TodoStore) HandleEvent(ev events.Event) {
	var payload todoEventPayload
	switch ev.Name {
	case "todo_added", "todo_updated", "todo_deleted", "todo_list":
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	switch ev.Name {
	case "todo_added":
		if payload.Todo != nil {
			s.todos = prependIfAbsent(s.todos, *payload.Todo, todoID)
		}
	case "todo_updated":
		if payload.Todo != nil {
			s.todos = replaceByID(s.todos, *payload.Todo, todoID)
		}
	case "todo_deleted":
		if payload.TodoID != "" {
			s.todos = removeByID(s.todos, payload.TodoID, todoID)
		}
	case "todo_list":
		if payload.Todos != nil {
			s.todos = payload.Todos
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Fetch replaces the whole list from the backend. On failure the previous
// list is kept and the error is surfaced via Err.
func (s *TodoStore) Fetch(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	todos, err := s.client.ListTodos(ctx, sessionID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.todos = todos
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

// Add issues the create call. The list itself is only changed by the
// subsequent todo_added push event; a backend that never emits it leaves the
// list stale until the next fetch.
func (s *TodoStore) Add(ctx context.Context, fields api.TodoFields) error {
	_, err := s.client.CreateTodo(ctx, fields)
	s.recordErr(err)
	return err
}

func (s *TodoStore) Update(ctx context.Context, id string, fields api.TodoFields) error {
	_, err := s.client.UpdateTodo(ctx, id, fields)
	s.recordErr(err)
	return err
}

// Toggle flips completion server-side and applies the response directly, in
// addition to the todo_updated event (the two carry the same record).
func (s *TodoStore) Toggle(ctx context.Context, id string) error {
	updated, err := s.client.ToggleTodo(ctx, id)
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.mu.Lock()
	s.errMsg = ""
	s.todos = replaceByID(s.todos, updated, todoID)
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return nil
}

func (s *TodoStore) Delete(ctx context.Context, id string) error {
	err := s.client.DeleteTodo(ctx, id)
	s.recordErr(err)
	return err
}

// Todos returns a copy of the current list.
func (s *TodoStore) Todos() []api.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.TodoItem(nil), s.todos...)
}

// Stats returns completed and total counts.
func (s *TodoStore) Stats() (done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todos {
		if t.Completed {
			done++
		}
	}
	return done, len(s.todos)
}

func (s *TodoStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *TodoStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *TodoStore) recordErr(err error) {
	s.mu.Lock()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func todoID(t api.TodoItem) string { return t.ID }
