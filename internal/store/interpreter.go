package store

import (
	"context"
	"encoding/json"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// InterpreterStore owns the code-interpreter state list.
type InterpreterStore struct {
	client *api.Client

	mu      sync.Mutex
	states  []api.CodeInterpreterState
	loading bool
	errMsg  string

	onChange func()
}

func NewInterpreterStore(client *api.Client) *InterpreterStore {
	return &InterpreterStore{client: client}
}

func (s *InterpreterStore) Bind(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

func (s *InterpreterStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type interpreterEventPayload struct {
	State   *api.CodeInterpreterState  `json:"state"`
	StateID string                     `json:"stateId"`
	States  []api.CodeInterpreterState `json:"states"`
	Message string                     `json:"message"`
}

func (s *InterpreterStore) HandleEvent(ev events.Event) {
	var payload interpreterEventPayload
	switch ev.Name {
	case "code_interpreter_state_created",
		"code_interpreter_state_updated",
		"code_interpreter_state_retrieved",
		"code_interpreter_state_deleted",
		"code_interpreter_state_list",
		"error":
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	switch ev.Name {
	case "code_interpreter_state_created":
		if payload.State != nil {
			s.states = prependIfAbsent(s.states, *payload.State, stateID)
		}
	case "code_interpreter_state_updated":
		if payload.State != nil {
			s.states = replaceByID(s.states, *payload.State, stateID)
		}
	case "code_interpreter_state_retrieved":
		// 已存在则替换，否则插入 / Replace when present, insert otherwise.
		if payload.State != nil {
			before := len(s.states)
			s.states = prependIfAbsent(s.states, *payload.State, stateID)
			if len(s.states) == before {
				s.states = replaceByID(s.states, *payload.State, stateID)
			}
		}
	case "code_interpreter_state_deleted":
		if payload.StateID != "" {
			s.states = removeByID(s.states, payload.StateID, stateID)
		}
	case "code_interpreter_state_list":
		if payload.States != nil {
			s.states = payload.States
		}
	case "error":
		if payload.Message != "" {
			s.errMsg = payload.Message
			s.loading = false
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *InterpreterStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	states, err := s.client.ListInterpreterStates(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.states = states
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

func (s *InterpreterStore) States() []api.CodeInterpreterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.CodeInterpreterState(nil), s.states...)
}

func (s *InterpreterStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *InterpreterStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func stateID(st api.CodeInterpreterState) string { return st.ID }
