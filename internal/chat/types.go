package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message roles. The transcript only ever carries these two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 对话中的一条消息 / Message is one entry in the conversation transcript.
// Content is the only mutable field, and only for the most recent assistant
// message while a reply is still streaming in.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage builds a message with a fresh client-side id. Chat messages are
// the one record family whose ids originate locally, not on the server.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Transcript 仅追加的消息列表 / Transcript is an append-only message list.
// Messages are never edited or removed once appended; the single exception is
// AppendDelta, which grows the content of the trailing assistant message.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()
}

// AppendDelta appends streamed text to the trailing assistant message,
// creating one if the transcript does not end with an assistant message.
func (t *Transcript) AppendDelta(text string) {
	if text == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.messages)
	if n == 0 || t.messages[n-1].Role != RoleAssistant {
		t.messages = append(t.messages, NewMessage(RoleAssistant, text))
		return
	}
	t.messages[n-1].Content += text
}

// Messages returns a snapshot copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// LastAssistant returns the trailing assistant message, if the transcript
// ends with one.
func (t *Transcript) LastAssistant() (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := len(t.messages)
	if n == 0 || t.messages[n-1].Role != RoleAssistant {
		return Message{}, false
	}
	return t.messages[n-1], true
}

// ValidateOutbound rejects messages that must not reach the wire.
func ValidateOutbound(msg Message) bool {
	return strings.TrimSpace(msg.Content) != ""
}
