package chat

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer token 计数器，tiktoken 不可用时启发式回退
// Tokenizer counts tokens with tiktoken, falling back to a heuristic when the
// BPE tables are unavailable (offline environments without the cache).
type Tokenizer struct {
	encoder  *tiktoken.Tiktoken
	fallback bool
	mu       sync.RWMutex
}

// NewTokenizer builds a tokenizer on the cl100k_base encoding.
func NewTokenizer() *Tokenizer {
	t := &Tokenizer{}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// CountText counts tokens in a single string.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback {
		return heuristicTokenCount(text)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.encoder.Encode(text, nil, nil))
}

// Count returns the total token count for a message list, including a small
// per-message framing overhead.
func (t *Tokenizer) Count(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += 4
		total += t.CountText(msg.Role)
		total += t.CountText(msg.Content)
	}
	return total
}

// IsPrecise reports whether exact BPE counting is in effect.
func (t *Tokenizer) IsPrecise() bool {
	return !t.fallback
}

// TrimHistory drops the oldest messages until the list fits within limit
// tokens. The most recent message is always kept, even when it alone exceeds
// the limit. A non-positive limit disables trimming.
func TrimHistory(messages []Message, limit int, tok *Tokenizer) []Message {
	if limit <= 0 || len(messages) <= 1 {
		return messages
	}
	start := 0
	for start < len(messages)-1 && tok.Count(messages[start:]) > limit {
		start++
	}
	return messages[start:]
}

// heuristicTokenCount estimates tokens from rune classes. CJK characters run
// about 1.5 tokens each, ASCII about 4 characters per token.
func heuristicTokenCount(text string) int {
	cjkCount := 0
	asciiCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		} else {
			asciiCount++
		}
	}
	estimate := int(float64(cjkCount)*1.5 + float64(asciiCount)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x3000 && r <= 0x303F) ||
		(r >= 0xFF00 && r <= 0xFFEF) ||
		(r >= 0xAC00 && r <= 0xD7AF)
}
