package store

import (
	"context"
	"encoding/json"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// BacklogStore owns the unscheduled backlog list.
type BacklogStore struct {
	client *api.Client

	mu       sync.Mutex
	backlogs []api.BacklogItem
	loading  bool
	errMsg   string

	onChange func()
}

func NewBacklogStore(client *api.Client) *BacklogStore {
	return &BacklogStore{client: client}
}

func (s *BacklogStore) Bind(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

func (s *BacklogStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type backlogEventPayload struct {
	Backlog   *api.BacklogItem  `json:"backlog"`
	BacklogID string            `json:"backlogId"`
	Backlogs  []api.BacklogItem `json:"backlogs"`
}

func (s *BacklogStore) HandleEvent(ev events.Event) {
	var payload backlogEventPayload
	switch ev.Name {
	case "backlog_added", "backlog_updated", "backlog_deleted", "backlog_list":
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	switch ev.Name {
	case "backlog_added":
		if payload.Backlog != nil {
			s.backlogs = prependIfAbsent(s.backlogs, *payload.Backlog, backlogID)
		}
	case "backlog_updated":
		if payload.Backlog != nil {
			s.backlogs = replaceByID(s.backlogs, *payload.Backlog, backlogID)
		}
	case "backlog_deleted":
		if payload.BacklogID != "" {
			s.backlogs = removeByID(s.backlogs, payload.BacklogID, backlogID)
		}
	case "backlog_list":
		if payload.Backlogs != nil {
			s.backlogs = payload.Backlogs
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *BacklogStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	backlogs, err := s.client.ListBacklogs(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.backlogs = backlogs
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

func (s *BacklogStore) Add(ctx context.Context, fields api.BacklogFields) error {
	_, err := s.client.CreateBacklog(ctx, fields)
	s.recordErr(err)
	return err
}

func (s *BacklogStore) Update(ctx context.Context, id string, fields api.BacklogFields) error {
	_, err := s.client.UpdateBacklog(ctx, id, fields)
	s.recordErr(err)
	return err
}

func (s *BacklogStore) Delete(ctx context.Context, id string) error {
	err := s.client.DeleteBacklog(ctx, id)
	s.recordErr(err)
	return err
}

// SendToTodo 晋升 backlog：后端创建 todo 并删除 backlog，随后推送
// todo_added 与 backlog_deleted 两个事件，本地列表由事件驱动更新。
// SendToTodo promotes a backlog entry; the backend pushes todo_added and
// backlog_deleted events and the local lists follow those.
func (s *BacklogStore) SendToTodo(ctx context.Context, id string) error {
	_, err := s.client.SendBacklogToTodo(ctx, id)
	s.recordErr(err)
	return err
}

func (s *BacklogStore) Backlogs() []api.BacklogItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.BacklogItem(nil), s.backlogs...)
}

func (s *BacklogStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *BacklogStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *BacklogStore) recordErr(err error) {
	s.mu.Lock()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func backlogID(b api.BacklogItem) string { return b.ID }
