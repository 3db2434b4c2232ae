package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 行式流帧协议：每个文本块编码为 0:"<escaped>"\n。
// Line frame protocol: each assistant text chunk is one line of the form
// 0:"<escaped>"\n. Older proxy versions emitted SSE-style data frames instead,
// so the decoder accepts both.

// EncodeTextFrame renders one text chunk as a protocol line.
func EncodeTextFrame(text string) string {
	data, err := json.Marshal(text)
	if err != nil {
		// string marshal cannot fail; keep the frame well formed anyway
		return "0:\"\"\n"
	}
	return "0:" + string(data) + "\n"
}

// DecodeFrameLine parses a single protocol line into its text content.
// Returns ok=false for lines that carry no text (blank lines, done markers).
func DecodeFrameLine(line string) (string, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return "", false, nil
	}
	if rest, found := strings.CutPrefix(line, "0:"); found {
		var text string
		if err := json.Unmarshal([]byte(rest), &text); err != nil {
			return "", false, fmt.Errorf("decode text frame: %w", err)
		}
		return text, true, nil
	}
	if rest, found := strings.CutPrefix(line, "data:"); found {
		rest = strings.TrimSpace(rest)
		if rest == "" || rest == "[DONE]" {
			return "", false, nil
		}
		ev, err := parseEvent([]byte(rest))
		if err != nil {
			return "", false, fmt.Errorf("decode data frame: %w", err)
		}
		text := ResponseText([]AgentEvent{ev})
		return text, text != "", nil
	}
	return "", false, fmt.Errorf("unrecognized frame: %.40s", line)
}

// DecodeFrames decodes a full streamed body into the concatenated text.
// Unrecognized lines are skipped rather than failing the whole body.
func DecodeFrames(raw string) string {
	var b strings.Builder
	for _, line := range strings.Split(raw, "\n") {
		text, ok, err := DecodeFrameLine(line)
		if err != nil || !ok {
			continue
		}
		b.WriteString(text)
	}
	return b.String()
}
