package events

import "testing"

func TestDecodeEnvelopeEventField(t *testing.T) {
	ev, err := DecodeEnvelope([]byte(`{"event":"todo_added","data":{"todo":{"id":"t1"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Name != "todo_added" {
		t.Fatalf("name=%q", ev.Name)
	}
	if string(ev.Data) != `{"todo":{"id":"t1"}}` {
		t.Fatalf("data=%s", ev.Data)
	}
}

// The older backend generation sends {"type": ...} instead of {"event": ...}.
func TestDecodeEnvelopeTypeField(t *testing.T) {
	ev, err := DecodeEnvelope([]byte(`{"type":"heartbeat","data":{}}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Name != "heartbeat" {
		t.Fatalf("name=%q", ev.Name)
	}
}

func TestDecodeEnvelopeEventWins(t *testing.T) {
	ev, err := DecodeEnvelope([]byte(`{"event":"plan_created","type":"plan_added","data":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Name != "plan_created" {
		t.Fatalf("name=%q", ev.Name)
	}
}

func TestDecodeEnvelopeRejectsNameless(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"data":{"x":1}}`)); err == nil {
		t.Fatal("expected error for envelope without a name")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
}
