package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// PlanStore owns the live plan list.
type PlanStore struct {
	client *api.Client

	mu      sync.Mutex
	plans   []api.PlanItem
	loading bool
	errMsg  string

	onChange func()
}

func NewPlanStore(client *api.Client) *PlanStore {
	return &PlanStore{client: client}
}

func (s *PlanStore) Bind(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

func (s *PlanStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type planEventPayload struct {
	Plan   *api.PlanItem  `json:"plan"`
	PlanID string         `json:"planId"`
	Plans  []api.PlanItem `json:"plans"`
}

// HandleEvent applies one push event. Both event generations are honored:
// plan_added (older) and plan_created (newer) carry the same payload.
func (s *PlanStore) HandleEvent(ev events.Event) {
	var payload planEventPayload
	switch ev.Name {
	case "plan_added", "plan_created", "plan_updated", "plan_deleted", "plan_list":
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	switch ev.Name {
	case "plan_added", "plan_created":
		if payload.Plan != nil {
			s.plans = prependIfAbsent(s.plans, *payload.Plan, planID)
		}
	case "plan_updated":
		if payload.Plan != nil {
			s.plans = replaceByID(s.plans, *payload.Plan, planID)
		}
	case "plan_deleted":
		if payload.PlanID != "" {
			s.plans = removeByID(s.plans, payload.PlanID, planID)
		}
	case "plan_list":
		if payload.Plans != nil {
			s.plans = payload.Plans
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *PlanStore) Fetch(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	plans, err := s.client.ListPlans(ctx, sessionID)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.plans = plans
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

func (s *PlanStore) Add(ctx context.Context, fields api.PlanFields) error {
	_, err := s.client.CreatePlan(ctx, fields)
	s.recordErr(err)
	return err
}

func (s *PlanStore) Update(ctx context.Context, id string, fields api.PlanFields) error {
	_, err := s.client.UpdatePlan(ctx, id, fields)
	s.recordErr(err)
	return err
}

// Toggle flips completion server-side and applies the response directly, in
// addition to the plan_updated event. The backend has no dedicated plan
// toggle route, so this goes through the regular update endpoint.
func (s *PlanStore) Toggle(ctx context.Context, id string) error {
	s.mu.Lock()
	var current *api.PlanItem
	for i := range s.plans {
		if s.plans[i].ID == id {
			current = &s.plans[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		err := fmt.Errorf("unknown plan %s", id)
		s.recordErr(err)
		return err
	}
	flipped := !current.Completed
	s.mu.Unlock()

	updated, err := s.client.UpdatePlan(ctx, id, api.PlanFields{Completed: &flipped})
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.mu.Lock()
	s.errMsg = ""
	s.plans = replaceByID(s.plans, updated, planID)
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
	return nil
}

func (s *PlanStore) Delete(ctx context.Context, id string) error {
	err := s.client.DeletePlan(ctx, id)
	s.recordErr(err)
	return err
}

func (s *PlanStore) Plans() []api.PlanItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.PlanItem(nil), s.plans...)
}

func (s *PlanStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *PlanStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *PlanStore) recordErr(err error) {
	s.mu.Lock()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func planID(p api.PlanItem) string { return p.ID }
