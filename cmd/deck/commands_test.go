package main

import (
	"bytes"
	"strings"
	"testing"

	"agentdeck/internal/store"
)

func TestResolveID(t *testing.T) {
	ids := []string{"todo_abc123", "todo_abd456", "plan_xyz"}

	if got, ok := resolveID("todo_abc123", ids); !ok || got != "todo_abc123" {
		t.Fatalf("exact match: got=%q ok=%v", got, ok)
	}
	if got, ok := resolveID("plan", ids); !ok || got != "plan_xyz" {
		t.Fatalf("unique prefix: got=%q ok=%v", got, ok)
	}
	if _, ok := resolveID("todo_ab", ids); ok {
		t.Fatal("ambiguous prefix should not resolve")
	}
	if _, ok := resolveID("missing", ids); ok {
		t.Fatal("unknown key should not resolve")
	}
}

func TestExactMatchWinsOverPrefix(t *testing.T) {
	ids := []string{"a", "ab"}
	if got, ok := resolveID("a", ids); !ok || got != "a" {
		t.Fatalf("got=%q ok=%v", got, ok)
	}
}

func TestFirstCodeLine(t *testing.T) {
	if got := firstCodeLine("print(1)\nprint(2)"); got != "print(1)" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("x", 120)
	if got := firstCodeLine(long); len(got) != 80 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long line not truncated: %q", got)
	}
}

func TestPrintFileNodesIndentsChildren(t *testing.T) {
	roots := []*store.FileNode{
		{
			Name: "src",
			Type: "folder",
			Children: []*store.FileNode{
				{Name: "main.go", Type: "file"},
			},
		},
		{Name: "README.md", Type: "file"},
	}

	var buf bytes.Buffer
	printFileNodes(&buf, roots, 0)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "src/" {
		t.Fatalf("folder line: %q", lines[0])
	}
	if lines[1] != "  main.go" {
		t.Fatalf("child should be indented: %q", lines[1])
	}
	if lines[2] != "README.md" {
		t.Fatalf("sibling file line: %q", lines[2])
	}
}

func TestTodoMarker(t *testing.T) {
	if todoMarker(true) != "[x]" || todoMarker(false) != "[ ]" {
		t.Fatal("unexpected markers")
	}
}

func TestHandleCommandExit(t *testing.T) {
	handled, exit := handleCommand("/exit", nil, nil)
	if !handled || !exit {
		t.Fatalf("handled=%v exit=%v", handled, exit)
	}
	handled, exit = handleCommand("/quit", nil, nil)
	if !handled || !exit {
		t.Fatalf("handled=%v exit=%v", handled, exit)
	}
}

func TestHandleCommandUnknownNotConsumed(t *testing.T) {
	handled, exit := handleCommand("/bogus", nil, nil)
	if handled || exit {
		t.Fatalf("handled=%v exit=%v", handled, exit)
	}
}
