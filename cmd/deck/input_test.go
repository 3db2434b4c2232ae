package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBasicLineInputTrimsLineEndings(t *testing.T) {
	var out bytes.Buffer
	in := newBasicLineInput(strings.NewReader("hello world\r\nsecond\n"), &out)

	line, err := in.ReadLine("> ")
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "hello world" {
		t.Fatalf("got %q", line)
	}
	if out.String() != "> " {
		t.Fatalf("prompt not written: %q", out.String())
	}

	line, err = in.ReadLine("> ")
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "second" {
		t.Fatalf("got %q", line)
	}
}

func TestBasicLineInputEOF(t *testing.T) {
	in := newBasicLineInput(strings.NewReader(""), nil)
	if _, err := in.ReadLine("> "); err == nil {
		t.Fatal("expected EOF error")
	}
}

func TestPrintREPLCommandsListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	printREPLCommands(&buf)

	got := buf.String()
	for _, want := range []string{"/help", "/todos", "/approve", "/files", "/exit"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %s in output:\n%s", want, got)
		}
	}
}
