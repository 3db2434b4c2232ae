package storage

import "agentdeck/internal/chat"

// Store 持久化接口 / Store is the transcript persistence interface.
type Store interface {
	// Session 操作 / Session operations
	CreateSession(meta SessionMeta) error
	SaveSession(meta SessionMeta) error
	LoadSession(id string) (SessionMeta, error)
	ListSessions() ([]SessionMeta, error)
	DeleteSession(id string) error

	// Message 操作 / Message operations
	SaveMessages(sessionID string, messages []chat.Message) error
	AppendMessage(sessionID string, msg chat.Message) error
	LoadMessages(sessionID string) ([]chat.Message, error)

	Close() error
}
