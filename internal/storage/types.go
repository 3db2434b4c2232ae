package storage

// SessionMeta 会话元数据
// SessionMeta holds console session metadata. A session pairs one local chat
// transcript with the backend session id used for scoped REST calls.
type SessionMeta struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	BackendID string `json:"backend_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
