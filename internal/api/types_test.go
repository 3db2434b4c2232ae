package api

import (
	"encoding/json"
	"testing"
)

// The backend emits timestamps as epoch milliseconds on every record.
func TestTodoItemDecodesBackendPayload(t *testing.T) {
	raw := `{
		"id": "t1",
		"title": "buy milk",
		"description": "",
		"completed": false,
		"session_id": "default_session",
		"created_at": 1700000000000,
		"updated_at": 1700000001234
	}`

	var todo TodoItem
	if err := json.Unmarshal([]byte(raw), &todo); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if todo.ID != "t1" || todo.Title != "buy milk" || todo.Completed {
		t.Fatalf("todo=%+v", todo)
	}
	if todo.CreatedAt != 1700000000000 || todo.UpdatedAt != 1700000001234 {
		t.Fatalf("timestamps: created=%d updated=%d", todo.CreatedAt, todo.UpdatedAt)
	}
}

func TestFileRecordDecodesBackendPayload(t *testing.T) {
	raw := `{
		"id": "f1",
		"name": "main.go",
		"type": "file",
		"size": 2048,
		"path": "src/main.go",
		"created_at": 1700000000000,
		"updated_at": 1700000000000
	}`

	var rec FileRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Path != "src/main.go" || rec.Size != 2048 || rec.UpdatedAt != 1700000000000 {
		t.Fatalf("record=%+v", rec)
	}
}

func TestApprovalDecodesBackendPayload(t *testing.T) {
	raw := `{
		"id": "a1",
		"session_id": "default_session",
		"function_call_id": "call_1",
		"description": "run ls",
		"status": "pending",
		"created_at": 1700000000000,
		"updated_at": 1700000000000
	}`

	var ap Approval
	if err := json.Unmarshal([]byte(raw), &ap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ap.Status != ApprovalPending || ap.CreatedAt != 1700000000000 {
		t.Fatalf("approval=%+v", ap)
	}
}
