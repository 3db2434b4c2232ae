package tui

import (
	"context"
	"fmt"
	"strings"

	"agentdeck/internal/chat"
	"agentdeck/internal/events"
	"agentdeck/internal/i18n"
	"agentdeck/internal/store"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PanelID 面板标识
// PanelID identifies a panel
type PanelID int

const (
	PanelChat PanelID = iota
	PanelTasks
	PanelApprovals
	PanelFiles
	PanelInterpreter
	PanelLogs

	panelCount = 6
)

// --- Tea Messages ---

// EventMsg carries one backend push event into the update loop. The bridge in
// bootstrap forwards bus events through Program.Send, so handlers stay on the
// single tea goroutine.
type EventMsg struct{ Event events.Event }

// ConnStateMsg carries stream connection health changes.
type ConnStateMsg struct {
	Connected bool
	Err       string
}

// RefreshMsg 仓库内容变化，触发重绘 / RefreshMsg signals store content changed.
type RefreshMsg struct{}

// ChatChunkMsg is one streamed reply fragment.
type ChatChunkMsg struct{ Text string }

// ChatDoneMsg closes out a chat turn.
type ChatDoneMsg struct{ Err error }

// Deps 注入的依赖 / Deps carries the injected stores and services.
type Deps struct {
	Todos       *store.TodoStore
	Plans       *store.PlanStore
	Backlogs    *store.BacklogStore
	Approvals   *store.ApprovalStore
	Interpreter *store.InterpreterStore
	Files       *store.FileStore
	Chat        *chat.Service
	SessionID   string
}

// App Bubble Tea 主 Model
// App is the main Bubble Tea model
type App struct {
	deps Deps

	// 布局 / Layout
	width  int
	height int

	// 面板 / Panels
	activePanel PanelID
	panelView   viewport.Model

	// 输入 / Input
	input        textarea.Model
	inputFocused bool

	// 日志缓冲 / Log buffer
	logContent strings.Builder

	// 状态 / State
	streaming bool
	connected bool
	connErr   string
	chatCh    chan tea.Msg

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建 TUI 应用 / NewApp creates the TUI application model.
func NewApp(deps Deps) App {
	ta := textarea.New()
	ta.Placeholder = i18n.T("input.placeholder")
	ta.CharLimit = 8192
	ta.SetHeight(3)
	ta.Focus()

	return App{
		deps:         deps,
		activePanel:  PanelChat,
		input:        ta,
		inputFocused: true,
		theme:        DarkTheme(),
		keys:         DefaultKeyMap(),
		locale:       i18n.Global(),
	}
}

func (a App) Init() tea.Cmd {
	return textarea.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			a.activePanel = (a.activePanel + 1) % panelCount
			a.refreshPanel()
			return a, nil
		case "shift+tab":
			a.activePanel = (a.activePanel + panelCount - 1) % panelCount
			a.refreshPanel()
			return a, nil
		case "enter":
			if a.activePanel == PanelChat && !a.streaming {
				text := strings.TrimSpace(a.input.Value())
				if text != "" {
					a.input.Reset()
					a.streaming = true
					cmd := a.startChat(text)
					a.refreshPanel()
					return a, cmd
				}
			}
		case "a":
			if a.activePanel == PanelApprovals {
				return a, a.decideFirstPending(true)
			}
		case "r":
			if a.activePanel == PanelApprovals {
				return a, a.decideFirstPending(false)
			}
		case "esc":
			if a.streaming {
				a.streaming = false
				a.appendLog(i18n.T("status.interrupted"))
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case EventMsg:
		a.appendLog("[EVENT] " + msg.Event.Name)
		a.refreshPanel()
		return a, nil

	case ConnStateMsg:
		a.connected = msg.Connected
		a.connErr = msg.Err
		if msg.Connected {
			a.appendLog("[CONN] " + i18n.T("status.connected"))
		} else if msg.Err != "" {
			a.appendLog("[CONN] " + i18n.T("status.disconnected", msg.Err))
		}
		return a, nil

	case RefreshMsg:
		a.refreshPanel()
		return a, nil

	case ChatChunkMsg:
		a.refreshPanel()
		return a, a.waitForChat()

	case ChatDoneMsg:
		a.streaming = false
		if msg.Err != nil {
			a.appendLog("[CHAT] " + msg.Err.Error())
		}
		a.refreshPanel()
		return a, nil
	}

	// 更新输入区 / Update input area
	if a.inputFocused && a.activePanel == PanelChat {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// startChat runs the send in its own goroutine and pumps chunks back through
// a channel so Update stays single-threaded.
func (a *App) startChat(text string) tea.Cmd {
	ch := make(chan tea.Msg, 16)
	a.chatCh = ch
	svc := a.deps.Chat
	go func() {
		err := svc.Send(context.Background(), text, func(chunk string) {
			ch <- ChatChunkMsg{Text: chunk}
		})
		ch <- ChatDoneMsg{Err: err}
		close(ch)
	}()
	return a.waitForChat()
}

func (a App) waitForChat() tea.Cmd {
	ch := a.chatCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (a App) decideFirstPending(approve bool) tea.Cmd {
	pending := a.deps.Approvals.Pending()
	if len(pending) == 0 {
		return nil
	}
	id := pending[0].ID
	return func() tea.Msg {
		var err error
		if approve {
			err = a.deps.Approvals.Approve(context.Background(), id)
		} else {
			err = a.deps.Approvals.Reject(context.Background(), id)
		}
		if err != nil {
			return ChatDoneMsg{Err: err}
		}
		return RefreshMsg{}
	}
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	inputHeight := 5
	statusHeight := 1
	tabHeight := 1
	panelHeight := a.height - statusHeight - tabHeight
	if a.activePanel == PanelChat {
		panelHeight -= inputHeight
	}
	if panelHeight < 3 {
		panelHeight = 3
	}

	tabs := a.renderTabs(a.width)
	panel := lipgloss.NewStyle().Width(a.width).Height(panelHeight).Render(a.panelView.View())
	statusBar := a.renderStatusBar(a.width)

	sections := []string{tabs, panel}
	if a.activePanel == PanelChat {
		sections = append(sections, a.theme.InputStyle.Width(a.width).Render(a.input.View()))
	}
	sections = append(sections, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// --- Internal methods ---

func (a *App) relayout() {
	panelHeight := a.height - 8
	if panelHeight < 3 {
		panelHeight = 3
	}
	a.panelView = viewport.New(a.width, panelHeight)
	a.input.SetWidth(a.width - 4)
	a.refreshPanel()
}

func (a *App) refreshPanel() {
	a.panelView.SetContent(a.panelContent())
	a.panelView.GotoBottom()
}

func (a *App) appendLog(text string) {
	a.logContent.WriteString(text + "\n")
	if a.activePanel == PanelLogs {
		a.refreshPanel()
	}
}

func (a App) panelContent() string {
	switch a.activePanel {
	case PanelChat:
		return a.renderChat()
	case PanelTasks:
		return a.renderTasks()
	case PanelApprovals:
		return a.renderApprovals()
	case PanelFiles:
		return a.renderFiles()
	case PanelInterpreter:
		return a.renderInterpreter()
	case PanelLogs:
		if a.logContent.Len() == 0 {
			return a.theme.MutedStyle.Render("  " + a.locale.T("tasks.empty"))
		}
		return a.logContent.String()
	}
	return ""
}

// --- Render methods ---

func (a App) renderTabs(width int) string {
	tabs := []struct {
		id   PanelID
		name string
	}{
		{PanelChat, a.locale.T("panel.chat")},
		{PanelTasks, a.locale.T("panel.tasks")},
		{PanelApprovals, a.locale.T("panel.approvals")},
		{PanelFiles, a.locale.T("panel.files")},
		{PanelInterpreter, a.locale.T("panel.interpreter")},
		{PanelLogs, a.locale.T("panel.logs")},
	}

	var parts []string
	for _, tab := range tabs {
		style := a.theme.InactiveTabStyle
		if tab.id == a.activePanel {
			style = a.theme.ActiveTabStyle
		}
		name := tab.name
		if tab.id == PanelApprovals {
			if n := len(a.deps.Approvals.Pending()); n > 0 {
				name = fmt.Sprintf("%s(%d)", name, n)
			}
		}
		parts = append(parts, style.Render(name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a App) renderChat() string {
	msgs := a.deps.Chat.Transcript().Messages()
	if len(msgs) == 0 {
		return a.theme.MutedStyle.Render("  " + a.locale.T("repl.welcome"))
	}
	var b strings.Builder
	for _, msg := range msgs {
		if msg.Role == chat.RoleUser {
			b.WriteString(a.theme.TitleStyle.Render(a.locale.T("chat.you")) + "\n")
			b.WriteString(msg.Content + "\n\n")
			continue
		}
		b.WriteString(a.theme.SuccessStyle.Render(a.locale.T("chat.assistant")) + "\n")
		b.WriteString(RenderMarkdown(msg.Content, a.width-2) + "\n\n")
	}
	if a.streaming {
		b.WriteString(a.theme.MutedStyle.Render(a.locale.T("status.streaming")))
	}
	return b.String()
}

func (a App) renderTasks() string {
	var b strings.Builder

	done, total := a.deps.Todos.Stats()
	b.WriteString(a.theme.TitleStyle.Render(" "+a.locale.T("tasks.todos")) +
		a.theme.MutedStyle.Render("  "+a.locale.T("tasks.done_total", done, total)) + "\n")
	for _, item := range a.deps.Todos.Todos() {
		mark := "[ ]"
		if item.Completed {
			mark = "[x]"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mark, item.Title))
	}

	b.WriteString("\n" + a.theme.TitleStyle.Render(" "+a.locale.T("tasks.plans")) + "\n")
	for _, item := range a.deps.Plans.Plans() {
		mark := "[ ]"
		if item.Completed {
			mark = "[x]"
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", mark, item.Title))
	}

	b.WriteString("\n" + a.theme.TitleStyle.Render(" "+a.locale.T("tasks.backlogs")) + "\n")
	for _, item := range a.deps.Backlogs.Backlogs() {
		b.WriteString("  • " + item.Title + "\n")
	}

	return b.String()
}

func (a App) renderApprovals() string {
	approvals := a.deps.Approvals.Approvals()
	if len(approvals) == 0 {
		return a.theme.MutedStyle.Render("  " + a.locale.T("approval.none"))
	}
	var b strings.Builder
	for _, ap := range approvals {
		var badge string
		switch ap.Status {
		case "pending":
			badge = a.theme.DangerStyle.Render(a.locale.T("approval.pending"))
		case "approved":
			badge = a.theme.SuccessStyle.Render(a.locale.T("approval.approved"))
		default:
			badge = a.theme.MutedStyle.Render(a.locale.T("approval.rejected"))
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", badge, ap.Description))
	}
	b.WriteString("\n" + a.theme.MutedStyle.Render("  a: approve  r: reject"))
	return b.String()
}

func (a App) renderFiles() string {
	roots := a.deps.Files.Roots()
	if len(roots) == 0 {
		return a.theme.MutedStyle.Render("  " + a.locale.T("files.empty"))
	}
	var b strings.Builder
	renderFileNodes(&b, roots, 1)
	return b.String()
}

func renderFileNodes(b *strings.Builder, nodes []*store.FileNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		if node.Type == "folder" {
			b.WriteString(indent + "▸ " + node.Name + "/\n")
			renderFileNodes(b, node.Children, depth+1)
		} else {
			b.WriteString(indent + "  " + node.Name + "\n")
		}
	}
}

func (a App) renderInterpreter() string {
	states := a.deps.Interpreter.States()
	if len(states) == 0 {
		return a.theme.MutedStyle.Render("  " + a.locale.T("interpreter.none"))
	}
	var b strings.Builder
	for _, st := range states {
		b.WriteString(fmt.Sprintf("  [%s] %s\n", st.Status, firstLine(st.Code)))
		if st.Result != "" {
			b.WriteString(a.theme.MutedStyle.Render("      → "+firstLine(st.Result)) + "\n")
		}
	}
	return b.String()
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 80 {
		s = s[:80] + "…"
	}
	return s
}

func (a App) renderStatusBar(width int) string {
	conn := a.locale.T("status.connected")
	if !a.connected {
		conn = a.locale.T("status.reconnecting")
		if a.connErr != "" {
			conn = a.locale.T("status.disconnected", a.connErr)
		}
	}
	state := a.locale.T("status.ready")
	if a.streaming {
		state = a.locale.T("status.streaming")
	}
	tokens := a.deps.Chat.Tokenizer().Count(a.deps.Chat.Transcript().Messages())

	left := fmt.Sprintf(" %s · %s · %s", a.deps.SessionID, conn, state)
	right := fmt.Sprintf("%s  ", a.locale.T("status.tokens", tokens))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

// Run 启动 Bubble Tea TUI / Run starts the TUI and returns the Program so the
// caller can bridge bus events in with Program.Send.
func Run(deps Deps, bind func(p *tea.Program)) error {
	app := NewApp(deps)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if bind != nil {
		bind(p)
	}
	_, err := p.Run()
	return err
}
