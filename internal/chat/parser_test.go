package chat

import (
	"strings"
	"testing"
)

func TestExtractResponseTextSingleDataLine(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[{\"text\":\"hello\"}]}}\n"
	got, err := ExtractResponseText(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q", got)
	}
}

// Two complete JSON objects on separate data lines parse as two events, not
// as one failed concatenation.
func TestParseAgentStreamMultiLine(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[{\"text\":\"first \"}]}}\n" +
		"data: {\"content\":{\"parts\":[{\"text\":\"second\"}]}}\n"
	events, err := ParseAgentStream(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events=%d", len(events))
	}
	if got := ResponseText(events); got != "first second" {
		t.Fatalf("got %q", got)
	}
}

// A single document split mid-object across data lines only parses via the
// concatenation fallback.
func TestParseAgentStreamConcatenationFallback(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[\n" +
		"data: {\"text\":\"joined\"}]}}\n"
	events, err := ParseAgentStream(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("events=%d", len(events))
	}
	if got := ResponseText(events); got != "joined" {
		t.Fatalf("got %q", got)
	}
}

func TestParseAgentStreamArrayDocument(t *testing.T) {
	raw := `[{"content":{"parts":[{"text":"a"}]}},{"content":{"parts":[{"text":"b"}]}}]`
	events, err := ParseAgentStream(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || ResponseText(events) != "ab" {
		t.Fatalf("events=%d text=%q", len(events), ResponseText(events))
	}
}

func TestParseAgentStreamPlainJSONWithoutSSEPrefix(t *testing.T) {
	raw := `{"content":{"parts":[{"text":"plain"}]}}`
	got, err := ExtractResponseText(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func TestResponseTextFunctionResponseNotice(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[{\"functionResponse\":{\"name\":\"create_todo\"}}]}}\n"
	got, err := ExtractResponseText(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Function called: create_todo" {
		t.Fatalf("got %q", got)
	}
}

func TestResponseTextMixedParts(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[{\"text\":\"done. \"},{\"functionResponse\":{\"name\":\"list_files\"}}]}}\n"
	got, err := ExtractResponseText(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "done. ") || !strings.Contains(got, "Function called: list_files") {
		t.Fatalf("got %q", got)
	}
}

func TestParseAgentStreamRejectsGarbage(t *testing.T) {
	if _, err := ParseAgentStream("data: not json at all\n"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseAgentStream(""); err == nil {
		t.Fatal("expected error for empty body")
	}
	// Valid JSON with none of the recognized fields fails the typed parse.
	if _, err := ParseAgentStream(`{"something":"else"}`); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}

func TestParseAgentStreamSkipsDoneMarkerViaErrorCollection(t *testing.T) {
	raw := "data: {\"content\":{\"parts\":[{\"text\":\"ok\"}]}}\n" +
		"data: [DONE]\n"
	events, err := ParseAgentStream(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || ResponseText(events) != "ok" {
		t.Fatalf("events=%d", len(events))
	}
}
