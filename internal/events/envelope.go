package events

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event 服务端推送事件的规范形态 / Event is the canonical server push event.
// The wire envelope appears in two generations: {"event": ..., "data": ...}
// and {"type": ..., "data": ...}. Both decode into Event; everything past
// this boundary only ever sees Name.
type Event struct {
	Name string
	Data json.RawMessage
}

type wireEnvelope struct {
	Event string          `json:"event"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// DecodeEnvelope parses one SSE data payload into a canonical Event.
func DecodeEnvelope(payload []byte) (Event, error) {
	var env wireEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("parse event envelope: %w", err)
	}
	name := strings.TrimSpace(env.Event)
	if name == "" {
		name = strings.TrimSpace(env.Type)
	}
	if name == "" {
		return Event{}, fmt.Errorf("event envelope has no event name")
	}
	return Event{Name: name, Data: env.Data}, nil
}
