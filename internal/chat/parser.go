package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentEvent 上游 agent 一条事件的规范结构 / AgentEvent is one upstream agent
// event, parsed into a fixed schema at the boundary. Payloads that fit none of
// these fields fail the parse instead of silently yielding empty text.
type AgentEvent struct {
	Content      *EventContent `json:"content,omitempty"`
	Author       string        `json:"author,omitempty"`
	InvocationID string        `json:"invocationId,omitempty"`
	Error        string        `json:"error,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// EventContent carries the part list of one agent turn.
type EventContent struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part 单个内容分片：纯文本、函数调用或函数结果之一
// Part is a single content fragment: plain text, a function call, or a
// function response. Exactly one field is expected to be set.
type Part struct {
	Text             string       `json:"text,omitempty"`
	FunctionCall     *FunctionRef `json:"functionCall,omitempty"`
	FunctionResponse *FunctionRef `json:"functionResponse,omitempty"`
}

// FunctionRef names a tool invocation inside a part.
type FunctionRef struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ParseAgentStream 解析 agent 回复体为事件列表 / ParseAgentStream parses a raw
// agent response body into an event list.
//
// The upstream is inconsistent about its output shape: sometimes it streams
// one JSON object per "data:" line, sometimes it returns a single aggregate
// document split across lines. So the parse runs in two passes: first each
// line is parsed independently and every success is collected; only when no
// line parses on its own are all lines concatenated and parsed as one
// document (object or array).
func ParseAgentStream(raw string) ([]AgentEvent, error) {
	lines := dataPayloads(raw)
	if len(lines) == 0 {
		return nil, fmt.Errorf("agent response is empty")
	}

	var events []AgentEvent
	for _, line := range lines {
		ev, err := parseEvent([]byte(line))
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	if len(events) > 0 {
		return events, nil
	}

	// 整体回退解析 / Fallback: treat all lines as one document.
	joined := strings.Join(lines, "")
	if ev, err := parseEvent([]byte(joined)); err == nil {
		return []AgentEvent{ev}, nil
	}
	var list []AgentEvent
	if err := json.Unmarshal([]byte(joined), &list); err == nil && len(list) > 0 {
		return list, nil
	}
	return nil, fmt.Errorf("agent response matches no known shape: %.120s", joined)
}

// ResponseText flattens the events into one assistant reply. Text parts are
// carried through verbatim; function responses surface as a short notice so
// tool-only turns still produce visible output.
func ResponseText(events []AgentEvent) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Error != "" || ev.ErrorMessage != "" {
			continue
		}
		if ev.Content == nil {
			continue
		}
		for _, part := range ev.Content.Parts {
			switch {
			case part.Text != "":
				b.WriteString(part.Text)
			case part.FunctionResponse != nil && part.FunctionResponse.Name != "":
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "Function called: %s", part.FunctionResponse.Name)
			}
		}
	}
	return b.String()
}

// ExtractResponseText parses a raw body and flattens it in one call.
func ExtractResponseText(raw string) (string, error) {
	events, err := ParseAgentStream(raw)
	if err != nil {
		return "", err
	}
	return ResponseText(events), nil
}

// dataPayloads strips SSE framing: "data:" prefixes fall away, comment and
// blank lines are dropped. A body with no "data:" lines at all is treated as
// plain newline-delimited JSON.
func dataPayloads(raw string) []string {
	var payloads []string
	sawData := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "data:") {
			sawData = true
			part := strings.TrimPrefix(line, "data:")
			part = strings.TrimPrefix(part, " ")
			if strings.TrimSpace(part) != "" {
				payloads = append(payloads, part)
			}
		}
	}
	if sawData {
		return payloads
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payloads = append(payloads, line)
	}
	return payloads
}

// parseEvent decodes one payload, requiring that it is a JSON object and that
// it carries at least one recognized field.
func parseEvent(data []byte) (AgentEvent, error) {
	var ev AgentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return AgentEvent{}, err
	}
	if ev.Content == nil && ev.Error == "" && ev.ErrorMessage == "" {
		return AgentEvent{}, fmt.Errorf("event has no content")
	}
	return ev, nil
}
