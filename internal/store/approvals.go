package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"agentdeck/internal/api"
	"agentdeck/internal/events"
)

// ApprovalStore owns the approval queue and enforces the status machine:
// only pending approvals may transition, to approved or rejected, and the
// transition is irreversible.
type ApprovalStore struct {
	client *api.Client

	mu        sync.Mutex
	approvals []api.Approval
	loading   bool
	errMsg    string

	onChange func()
}

func NewApprovalStore(client *api.Client) *ApprovalStore {
	return &ApprovalStore{client: client}
}

func (s *ApprovalStore) Bind(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

func (s *ApprovalStore) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

type approvalEventPayload struct {
	Approval   *api.Approval  `json:"approval"`
	ApprovalID string         `json:"approvalId"`
	Approvals  []api.Approval `json:"approvals"`
}

func (s *ApprovalStore) HandleEvent(ev events.Event) {
	var payload approvalEventPayload
	switch ev.Name {
	case "approval_request", "approval_updated", "approval_deleted", "approval_list":
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	switch ev.Name {
	case "approval_request":
		if payload.Approval != nil {
			s.approvals = prependIfAbsent(s.approvals, *payload.Approval, approvalID)
		}
	case "approval_updated":
		if payload.Approval != nil {
			s.approvals = replaceByID(s.approvals, *payload.Approval, approvalID)
		}
	case "approval_deleted":
		if payload.ApprovalID != "" {
			s.approvals = removeByID(s.approvals, payload.ApprovalID, approvalID)
		}
	case "approval_list":
		if payload.Approvals != nil {
			s.approvals = payload.Approvals
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
}

func (s *ApprovalStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	approvals, err := s.client.ListApprovals(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.approvals = approvals
	}
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

// Approve transitions a pending approval to approved. Non-pending approvals
// are rejected locally before any HTTP call is made.
func (s *ApprovalStore) Approve(ctx context.Context, id string) error {
	if err := s.checkPending(id); err != nil {
		s.recordErr(err)
		return err
	}
	updated, err := s.client.ApproveRequest(ctx, id)
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.applyUpdate(updated)
	return nil
}

// Reject transitions a pending approval to rejected.
func (s *ApprovalStore) Reject(ctx context.Context, id string) error {
	if err := s.checkPending(id); err != nil {
		s.recordErr(err)
		return err
	}
	updated, err := s.client.RejectRequest(ctx, id)
	if err != nil {
		s.recordErr(err)
		return err
	}
	s.applyUpdate(updated)
	return nil
}

func (s *ApprovalStore) Delete(ctx context.Context, id string) error {
	err := s.client.DeleteApproval(ctx, id)
	s.recordErr(err)
	return err
}

func (s *ApprovalStore) checkPending(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.approvals {
		if a.ID != id {
			continue
		}
		if a.Status != api.ApprovalPending {
			return fmt.Errorf("approval %s is already %s", id, a.Status)
		}
		return nil
	}
	return fmt.Errorf("approval not found: %s", id)
}

func (s *ApprovalStore) applyUpdate(updated api.Approval) {
	s.mu.Lock()
	s.errMsg = ""
	s.approvals = replaceByID(s.approvals, updated, approvalID)
	notify := s.onChange
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (s *ApprovalStore) Approvals() []api.Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Approval(nil), s.approvals...)
}

// Pending returns only approvals still awaiting a decision.
func (s *ApprovalStore) Pending() []api.Approval {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.Approval
	for _, a := range s.approvals {
		if a.Status == api.ApprovalPending {
			out = append(out, a)
		}
	}
	return out
}

func (s *ApprovalStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *ApprovalStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *ApprovalStore) recordErr(err error) {
	s.mu.Lock()
	if err != nil {
		s.errMsg = err.Error()
	} else {
		s.errMsg = ""
	}
	s.mu.Unlock()
}

func approvalID(a api.Approval) string { return a.ID }
