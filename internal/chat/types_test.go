package chat

import "testing"

func TestAppendDeltaGrowsTrailingAssistant(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(RoleUser, "question"))
	tr.AppendDelta("first ")
	tr.AppendDelta("second")

	msgs := tr.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages=%d", len(msgs))
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "first second" {
		t.Fatalf("assistant=%+v", msgs[1])
	}
}

func TestAppendDeltaDoesNotTouchEarlierMessages(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewMessage(RoleAssistant, "old answer"))
	tr.Append(NewMessage(RoleUser, "new question"))
	tr.AppendDelta("new answer")

	msgs := tr.Messages()
	if len(msgs) != 3 {
		t.Fatalf("messages=%d", len(msgs))
	}
	if msgs[0].Content != "old answer" {
		t.Fatal("earlier assistant message was edited")
	}
	if msgs[2].Content != "new answer" {
		t.Fatalf("trailing=%+v", msgs[2])
	}
}

func TestNewMessageAssignsUniqueIDs(t *testing.T) {
	a := NewMessage(RoleUser, "x")
	b := NewMessage(RoleUser, "x")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids: %q %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Fatal("created at unset")
	}
}
