package tui

import (
	"strings"
	"testing"

	"agentdeck/internal/store"
)

func TestRenderMarkdown_Basic(t *testing.T) {
	input := "# Hello\n\nThis is **bold** text."
	result := RenderMarkdown(input, 80)
	if result == "" {
		t.Fatal("rendered markdown should not be empty")
	}
	if !strings.Contains(result, "Hello") {
		t.Fatalf("rendered output missing heading text: %q", result)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	if got := RenderMarkdown("   ", 80); got != "" {
		t.Fatalf("blank input should render empty, got %q", got)
	}
}

func TestRenderMarkdown_ZeroWidthDefaults(t *testing.T) {
	if got := RenderMarkdown("text", 0); got == "" {
		t.Fatal("zero width should fall back to a default")
	}
}

func TestRenderFileNodesIndentsChildren(t *testing.T) {
	roots := []*store.FileNode{
		{
			Name: "src", Type: "folder",
			Children: []*store.FileNode{
				{Name: "main.go", Type: "file"},
			},
		},
	}
	var b strings.Builder
	renderFileNodes(&b, roots, 1)
	out := b.String()
	if !strings.Contains(out, "src/") {
		t.Fatalf("missing folder marker: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%d", len(lines))
	}
	if len(lines[1])-len(strings.TrimLeft(lines[1], " ")) <= len(lines[0])-len(strings.TrimLeft(lines[0], " ")) {
		t.Fatal("child not indented deeper than parent")
	}
}
