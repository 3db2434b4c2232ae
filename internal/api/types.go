package api

// TodoItem 后端下发的待办记录 / TodoItem is a scheduled task record issued by the backend.
// Identity is the server-issued id; the client never fabricates todo ids.
// Timestamps are epoch milliseconds, as the backend emits them.
type TodoItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	SessionID   string `json:"session_id,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// PlanItem is a plan-level task record, same lifecycle as TodoItem.
type PlanItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	SessionID   string `json:"session_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// BacklogItem 未排期条目，可晋升为 Todo / BacklogItem is an unscheduled item awaiting promotion to a todo.
type BacklogItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Approval statuses. Transitions are pending -> approved or pending -> rejected,
// irreversible thereafter.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval is a human-in-the-loop gate pausing agent execution.
type Approval struct {
	ID             string `json:"id"`
	SessionID      string `json:"session_id"`
	FunctionCallID string `json:"function_call_id"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	Result         string `json:"result,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

// ApprovalResult wraps the approve/reject endpoints' response. Unlike the
// other mutating routes, these do not return the bare record.
type ApprovalResult struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Approval Approval `json:"approval"`
}

// Code interpreter run statuses.
const (
	InterpreterPending   = "pending"
	InterpreterRunning   = "running"
	InterpreterCompleted = "completed"
	InterpreterError     = "error"
)

// CodeInterpreterState tracks one code execution ticket on the backend.
type CodeInterpreterState struct {
	ID          string `json:"id"`
	SessionID   string `json:"session_id"`
	TicketID    string `json:"ticket_id"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Result      string `json:"result,omitempty"`
	WidgetURL   string `json:"widget_url,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// FileRecord 后端返回的扁平文件条目；层级在客户端按 path 重建
// FileRecord is one flat file entry; the hierarchy is rebuilt client-side by path.
type FileRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"` // "file" or "folder"
	Size      int64  `json:"size,omitempty"`
	Path      string `json:"path"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// TodoFields carries the client-settable fields for create/update calls.
type TodoFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Completed   *bool  `json:"completed,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	PlanID      string `json:"plan_id,omitempty"`
}

// PlanFields carries the client-settable fields for plan create/update calls.
type PlanFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Completed   *bool  `json:"completed,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// BacklogFields carries the client-settable fields for backlog create/update calls.
type BacklogFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}
