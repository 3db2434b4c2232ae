package chat

import (
	"context"

	"agentdeck/internal/config"
	"agentdeck/internal/i18n"
)

// Service 对话编排：transcript 维护、历史裁剪、发送与兜底
// Service orchestrates one conversation: it owns the transcript, trims the
// outbound history to the token budget, streams replies in, and substitutes a
// localized fallback message when the send fails. Errors never leave the
// transcript in a pending state.
type Service struct {
	client     *Client
	transcript *Transcript
	tokenizer  *Tokenizer
	tokenLimit int

	// onPersist observes every finalized message, for transcript storage.
	onPersist func(Message)
}

func NewService(cfg config.ChatConfig) *Service {
	return &Service{
		client:     NewClient(cfg),
		transcript: NewTranscript(),
		tokenizer:  NewTokenizer(),
		tokenLimit: cfg.HistoryTokenLimit,
	}
}

// SetOnPersist registers a message observer. Pass nil to disable.
func (s *Service) SetOnPersist(fn func(Message)) {
	s.onPersist = fn
}

// Transcript exposes the conversation for rendering.
func (s *Service) Transcript() *Transcript {
	return s.transcript
}

// Tokenizer exposes the counter for status displays.
func (s *Service) Tokenizer() *Tokenizer {
	return s.tokenizer
}

// Restore preloads a previously stored conversation.
func (s *Service) Restore(messages []Message) {
	for _, msg := range messages {
		s.transcript.Append(msg)
	}
}

// Send appends the user message, posts the trimmed history, and streams the
// assistant reply into the transcript via onChunk. When the send fails the
// reply is replaced by a localized error notice; the returned error still
// reports the cause so callers can log it.
func (s *Service) Send(ctx context.Context, text string, onChunk ChunkFunc) error {
	userMsg := NewMessage(RoleUser, text)
	if !ValidateOutbound(userMsg) {
		return nil
	}
	s.transcript.Append(userMsg)
	s.persist(userMsg)

	history := TrimHistory(s.transcript.Messages(), s.tokenLimit, s.tokenizer)

	reply, err := s.client.Send(ctx, history, func(chunk string) {
		s.transcript.AppendDelta(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	})
	if err != nil {
		notice := i18n.T("chat.send_failed")
		if reply == "" {
			s.transcript.AppendDelta(notice)
		} else {
			s.transcript.AppendDelta("\n" + notice)
		}
		if last, ok := s.transcript.LastAssistant(); ok {
			s.persist(last)
		}
		return err
	}

	if reply == "" {
		// Empty but successful reply still closes out the turn.
		s.transcript.AppendDelta(i18n.T("chat.empty_reply"))
	}
	if last, ok := s.transcript.LastAssistant(); ok {
		s.persist(last)
	}
	return nil
}

func (s *Service) persist(msg Message) {
	if s.onPersist != nil {
		s.onPersist(msg)
	}
}
