package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"agentdeck/internal/api"
	"agentdeck/internal/bootstrap"
	"agentdeck/internal/i18n"
	"agentdeck/internal/storage"
	"agentdeck/internal/store"
)

// handleCommand 处理斜杠命令，返回 (是否已处理, 是否退出)
// handleCommand dispatches one slash command. It returns whether the input was
// consumed and whether the REPL should exit.
func handleCommand(input string, rt *bootstrap.Runtime, currentMeta *storage.SessionMeta) (bool, bool) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false, false
	}
	ctx := context.Background()
	switch parts[0] {
	case "/exit", "/quit":
		return true, true
	case "/help":
		printREPLCommands(os.Stdout)
		return true, false
	case "/new":
		meta := storage.SessionMeta{
			ID:        storage.NewSessionID(),
			Title:     "console",
			BackendID: rt.SessionID,
		}
		rt.Chat.Restore(nil)
		if err := rt.AttachSession(meta); err != nil {
			fmt.Printf("create session failed: %v\n", err)
			return true, false
		}
		*currentMeta = meta
		fmt.Println(i18n.T("session.created", meta.ID))
		return true, false
	case "/sessions":
		if rt.Store == nil {
			fmt.Println(i18n.T("session.none"))
			return true, false
		}
		metas, err := rt.Store.ListSessions()
		if err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		if len(metas) == 0 {
			fmt.Println(i18n.T("session.none"))
			return true, false
		}
		for _, meta := range metas {
			fmt.Printf("%s  updated=%s  title=%s\n", meta.ID, meta.UpdatedAt, meta.Title)
		}
		return true, false
	case "/use":
		if len(parts) < 2 {
			fmt.Println("usage: /use <session_id>")
			return true, false
		}
		if rt.Store == nil {
			fmt.Println(i18n.T("session.none"))
			return true, false
		}
		meta, err := rt.Store.LoadSession(parts[1])
		if err != nil {
			fmt.Printf("load session failed: %v\n", err)
			return true, false
		}
		if err := rt.AttachSession(meta); err != nil {
			fmt.Printf("load session failed: %v\n", err)
			return true, false
		}
		*currentMeta = meta
		fmt.Println(i18n.T("session.switched", meta.ID))
		return true, false
	case "/todos":
		if err := rt.Todos.Fetch(ctx, rt.SessionID); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		items := rt.Todos.Todos()
		if len(items) == 0 {
			fmt.Println(i18n.T("tasks.empty"))
			return true, false
		}
		for _, item := range items {
			fmt.Printf("%s %s  %s\n", todoMarker(item.Completed), item.ID, item.Title)
		}
		done, total := rt.Todos.Stats()
		fmt.Println(i18n.T("tasks.done_total", done, total))
		return true, false
	case "/todo":
		handleTodoCommand(ctx, parts[1:], rt)
		return true, false
	case "/plans":
		if err := rt.Plans.Fetch(ctx, rt.SessionID); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		plans := rt.Plans.Plans()
		if len(plans) == 0 {
			fmt.Println(i18n.T("tasks.empty"))
			return true, false
		}
		for _, plan := range plans {
			fmt.Printf("%s %s  %s\n", todoMarker(plan.Completed), plan.ID, plan.Title)
		}
		return true, false
	case "/plan":
		if len(parts) < 3 || parts[1] != "done" {
			fmt.Println("usage: /plan done <id>")
			return true, false
		}
		id, ok := resolveID(parts[2], planIDs(rt.Plans.Plans()))
		if !ok {
			fmt.Println(i18n.T("tasks.not_found", parts[2]))
			return true, false
		}
		if err := rt.Plans.Toggle(ctx, id); err != nil {
			fmt.Println(i18n.T("tasks.toggle_fail", err))
		}
		return true, false
	case "/backlogs":
		if err := rt.Backlogs.Fetch(ctx); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		backlogs := rt.Backlogs.Backlogs()
		if len(backlogs) == 0 {
			fmt.Println(i18n.T("tasks.empty"))
			return true, false
		}
		for _, item := range backlogs {
			fmt.Printf("- %s  %s\n", item.ID, item.Title)
		}
		return true, false
	case "/backlog":
		if len(parts) < 3 || parts[1] != "promote" {
			fmt.Println("usage: /backlog promote <id>")
			return true, false
		}
		id, ok := resolveID(parts[2], backlogIDs(rt.Backlogs.Backlogs()))
		if !ok {
			fmt.Println(i18n.T("tasks.not_found", parts[2]))
			return true, false
		}
		if err := rt.Backlogs.SendToTodo(ctx, id); err != nil {
			fmt.Printf("promote failed: %v\n", err)
			return true, false
		}
		fmt.Println(i18n.T("tasks.promoted"))
		return true, false
	case "/approvals":
		if err := rt.Approvals.Fetch(ctx); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		approvals := rt.Approvals.Approvals()
		if len(approvals) == 0 {
			fmt.Println(i18n.T("approval.none"))
			return true, false
		}
		for _, a := range approvals {
			fmt.Printf("[%s] %s  %s\n", approvalStatusLabel(a.Status), a.ID, a.Description)
		}
		return true, false
	case "/approve", "/reject":
		if len(parts) < 2 {
			fmt.Printf("usage: %s <id>\n", parts[0])
			return true, false
		}
		id, ok := resolveID(parts[1], approvalIDs(rt.Approvals.Pending()))
		if !ok {
			fmt.Println(i18n.T("tasks.not_found", parts[1]))
			return true, false
		}
		var err error
		if parts[0] == "/approve" {
			err = rt.Approvals.Approve(ctx, id)
		} else {
			err = rt.Approvals.Reject(ctx, id)
		}
		if err != nil {
			fmt.Printf("%s failed: %v\n", strings.TrimPrefix(parts[0], "/"), err)
		}
		return true, false
	case "/files":
		if err := rt.Files.Fetch(ctx); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		roots := rt.Files.Roots()
		if len(roots) == 0 {
			fmt.Println(i18n.T("files.empty"))
			return true, false
		}
		printFileNodes(os.Stdout, roots, 0)
		return true, false
	case "/ci":
		if err := rt.Interpreter.Fetch(ctx); err != nil {
			fmt.Println(i18n.T("error.fetch", err))
			return true, false
		}
		states := rt.Interpreter.States()
		if len(states) == 0 {
			fmt.Println(i18n.T("interpreter.none"))
			return true, false
		}
		for _, st := range states {
			fmt.Printf("[%s] %s\n", st.Status, firstCodeLine(st.Code))
			if strings.TrimSpace(st.Result) != "" {
				fmt.Printf("    -> %s\n", strings.TrimSpace(st.Result))
			}
		}
		return true, false
	case "/status":
		connected, errMsg := rt.Bus.Connected()
		if connected {
			fmt.Println(i18n.T("status.connected"))
		} else {
			fmt.Println(i18n.T("status.disconnected", errMsg))
		}
		tokens := rt.Chat.Tokenizer().Count(rt.Chat.Transcript().Messages())
		fmt.Println(i18n.T("status.tokens", tokens))
		return true, false
	case "/config":
		data, _ := json.MarshalIndent(rt.Config, "", "  ")
		fmt.Println(string(data))
		return true, false
	default:
		return false, false
	}
}

func handleTodoCommand(ctx context.Context, args []string, rt *bootstrap.Runtime) {
	if len(args) == 0 {
		fmt.Println(i18n.T("tasks.add_usage"))
		return
	}
	switch args[0] {
	case "add":
		title := strings.TrimSpace(strings.Join(args[1:], " "))
		if title == "" {
			fmt.Println(i18n.T("tasks.add_usage"))
			return
		}
		if err := rt.Todos.Add(ctx, api.TodoFields{Title: title, SessionID: rt.SessionID}); err != nil {
			fmt.Printf("add todo failed: %v\n", err)
		}
	case "done":
		if len(args) < 2 {
			fmt.Println("usage: /todo done <id>")
			return
		}
		id, ok := resolveID(args[1], todoIDs(rt.Todos.Todos()))
		if !ok {
			fmt.Println(i18n.T("tasks.not_found", args[1]))
			return
		}
		if err := rt.Todos.Toggle(ctx, id); err != nil {
			fmt.Println(i18n.T("tasks.toggle_fail", err))
		}
	case "rm":
		if len(args) < 2 {
			fmt.Println("usage: /todo rm <id>")
			return
		}
		id, ok := resolveID(args[1], todoIDs(rt.Todos.Todos()))
		if !ok {
			fmt.Println(i18n.T("tasks.not_found", args[1]))
			return
		}
		if err := rt.Todos.Delete(ctx, id); err != nil {
			fmt.Printf("delete todo failed: %v\n", err)
		}
	default:
		fmt.Println(i18n.T("tasks.add_usage"))
	}
}

// resolveID 支持唯一前缀匹配 / resolveID matches an exact id first, then a
// unique prefix. Ambiguous prefixes resolve to nothing.
func resolveID(key string, ids []string) (string, bool) {
	for _, id := range ids {
		if id == key {
			return id, true
		}
	}
	matched := ""
	for _, id := range ids {
		if strings.HasPrefix(id, key) {
			if matched != "" {
				return "", false
			}
			matched = id
		}
	}
	return matched, matched != ""
}

func todoIDs(items []api.TodoItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func planIDs(items []api.PlanItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func backlogIDs(items []api.BacklogItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func approvalIDs(items []api.Approval) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func todoMarker(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

func approvalStatusLabel(status string) string {
	switch status {
	case api.ApprovalApproved:
		return i18n.T("approval.approved")
	case api.ApprovalRejected:
		return i18n.T("approval.rejected")
	default:
		return i18n.T("approval.pending")
	}
}

func printFileNodes(out io.Writer, nodes []*store.FileNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		if node.Type == "folder" {
			fmt.Fprintf(out, "%s%s/\n", indent, node.Name)
			printFileNodes(out, node.Children, depth+1)
			continue
		}
		fmt.Fprintf(out, "%s%s\n", indent, node.Name)
	}
}

func firstCodeLine(code string) string {
	trimmed := strings.TrimSpace(code)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) > 80 {
		trimmed = trimmed[:77] + "..."
	}
	return trimmed
}
