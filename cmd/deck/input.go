package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

type lineInput interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type basicLineInput struct {
	reader *bufio.Reader
	out    io.Writer
}

func newBasicLineInput(in io.Reader, out io.Writer) *basicLineInput {
	return &basicLineInput{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (b *basicLineInput) ReadLine(prompt string) (string, error) {
	if b.out != nil {
		fmt.Fprint(b.out, prompt)
	}
	line, err := b.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *basicLineInput) Close() error { return nil }

type readlineInput struct {
	instance *readline.Instance
}

func newReadlineInput(historyPath string) (*readlineInput, error) {
	if historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	instance, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyPath,
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, err
	}
	return &readlineInput{instance: instance}, nil
}

func (r *readlineInput) ReadLine(prompt string) (string, error) {
	r.instance.SetPrompt(prompt)
	return r.instance.Readline()
}

func (r *readlineInput) Close() error {
	if r == nil || r.instance == nil {
		return nil
	}
	return r.instance.Close()
}

func newLineInput(historyPath string) (lineInput, error) {
	readlineReader, err := newReadlineInput(historyPath)
	if err == nil {
		return readlineReader, nil
	}
	return newBasicLineInput(os.Stdin, os.Stdout), err
}

var replCommands = []string{
	"/help                  show this help",
	"/new                   start a fresh chat session",
	"/sessions              list stored sessions",
	"/use <session_id>      switch to a stored session",
	"/todos                 list todos for the active backend session",
	"/todo add <title>      create a todo",
	"/todo done <id>        toggle a todo's completed state",
	"/todo rm <id>          delete a todo",
	"/plans                 list plan steps",
	"/plan done <id>        toggle a plan step's completed state",
	"/backlogs              list backlog items",
	"/backlog promote <id>  move a backlog item onto the todo list",
	"/approvals             list approval requests",
	"/approve <id>          approve a pending request",
	"/reject <id>           reject a pending request",
	"/files                 show the workspace file tree",
	"/ci                    show code interpreter runs",
	"/status                show connection state and token usage",
	"/config                print the effective configuration",
	"/exit                  quit",
}

func printREPLCommands(out io.Writer) {
	if out == nil {
		return
	}
	fmt.Fprintln(out, "commands:")
	for _, cmd := range replCommands {
		fmt.Fprintf(out, "  %s\n", cmd)
	}
}
