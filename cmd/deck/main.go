package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"agentdeck/internal/bootstrap"
	"agentdeck/internal/config"
	"agentdeck/internal/events"
	"agentdeck/internal/i18n"
	"agentdeck/internal/storage"
	"agentdeck/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chzyer/readline"
)

func main() {
	var (
		configPath string
		mode       string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON/JSONC")
	flag.StringVar(&mode, "mode", "", "Front end override: repl or tui")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(mode) != "" {
		cfg.UI.Mode = strings.TrimSpace(mode)
	}

	rt, err := bootstrap.Build(&cfg, bootstrap.Options{
		Logf: func(format string, args ...any) {
			if cfg.UI.Mode != "tui" {
				fmt.Fprintf(os.Stderr, format+"\n", args...)
			}
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt.Start(ctx)

	currentMeta := storage.SessionMeta{
		ID:        storage.NewSessionID(),
		Title:     "console",
		BackendID: rt.SessionID,
	}
	if err := rt.AttachSession(currentMeta); err != nil {
		fmt.Fprintf(os.Stderr, "attach session failed: %v\n", err)
	}

	if cfg.UI.Mode == "tui" {
		if err := runTUI(rt); err != nil {
			fmt.Fprintf(os.Stderr, "tui failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	runREPL(rt, &cfg, currentMeta)
}

// runTUI 启动全屏界面并把事件总线桥接进 Update 循环
// runTUI starts the full-screen front end and bridges bus pushes into the
// update loop via Program.Send.
func runTUI(rt *bootstrap.Runtime) error {
	deps := tui.Deps{
		Todos:       rt.Todos,
		Plans:       rt.Plans,
		Backlogs:    rt.Backlogs,
		Approvals:   rt.Approvals,
		Interpreter: rt.Interpreter,
		Files:       rt.Files,
		Chat:        rt.Chat,
		SessionID:   rt.SessionID,
	}
	return tui.Run(deps, func(p *tea.Program) {
		rt.Bus.Subscribe(func(ev events.Event) {
			p.Send(tui.EventMsg{Event: ev})
		})
		rt.Bus.SubscribeState(func(connected bool, errMsg string) {
			p.Send(tui.ConnStateMsg{Connected: connected, Err: errMsg})
		})
		notify := func() { p.Send(tui.RefreshMsg{}) }
		rt.Todos.SetOnChange(notify)
		rt.Plans.SetOnChange(notify)
		rt.Backlogs.SetOnChange(notify)
		rt.Approvals.SetOnChange(notify)
		rt.Interpreter.SetOnChange(notify)
		rt.Files.SetOnChange(notify)
	})
}

func runREPL(rt *bootstrap.Runtime, cfg *config.Config, currentMeta storage.SessionMeta) {
	historyPath := ""
	if dir, err := config.ExpandPath(cfg.Storage.BaseDir); err == nil {
		historyPath = filepath.Join(dir, "repl.history")
	}
	inputReader, inputErr := newLineInput(historyPath)
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer inputReader.Close()

	fmt.Println(i18n.T("repl.welcome"))
	fmt.Printf("session: %s\n", currentMeta.ID)

	for {
		line, err := inputReader.ReadLine("> ")
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(os.Stdout)
				continue
			case errors.Is(err, io.EOF):
				fmt.Println(i18n.T("repl.bye"))
				return
			default:
				fmt.Fprintf(os.Stderr, "read input failed: %v\n", err)
				return
			}
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			handled, shouldExit := handleCommand(input, rt, &currentMeta)
			if handled {
				if shouldExit {
					fmt.Println(i18n.T("repl.bye"))
					return
				}
				continue
			}
			fmt.Println(i18n.T("repl.unknown_cmd", input))
			continue
		}

		err = rt.Chat.Send(context.Background(), input, func(chunk string) {
			fmt.Print(chunk)
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
		}
	}
}
