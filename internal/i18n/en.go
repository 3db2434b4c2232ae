package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Panels
	"panel.chat":        "Chat",
	"panel.tasks":       "Tasks",
	"panel.approvals":   "Approvals",
	"panel.files":       "Files",
	"panel.interpreter": "Interpreter",
	"panel.logs":        "Logs",

	// Status bar
	"status.connected":    "Connected",
	"status.disconnected": "Disconnected: %s",
	"status.reconnecting": "Reconnecting...",
	"status.ready":        "Ready",
	"status.streaming":    "Streaming...",
	"status.interrupted":  "Generation interrupted",
	"status.loading":      "Loading...",
	"status.tokens":       "%d tokens",

	// Chat
	"chat.send_failed": "Sorry, I could not reach the agent. Please try again.",
	"chat.empty_reply": "(the agent returned no text)",
	"chat.you":         "You",
	"chat.assistant":   "Assistant",

	// Input
	"input.placeholder": "Type a message, Enter to send",

	// Proxy fallback (embeds the original user text)
	"proxy.fallback": "Received your message: \"%s\". The agent service is currently unreachable, please try again later.",

	// Tasks
	"tasks.todos":       "Todos",
	"tasks.plans":       "Plans",
	"tasks.backlogs":    "Backlog",
	"tasks.done_total":  "%d/%d done",
	"tasks.empty":       "No items",
	"tasks.promoted":    "Backlog item promoted to todo",
	"tasks.add_usage":   "usage: /todo add <title>",
	"tasks.not_found":   "no such item: %s",
	"tasks.toggle_fail": "toggle failed: %s",

	// Approvals
	"approval.pending":  "Pending",
	"approval.approved": "Approved",
	"approval.rejected": "Rejected",
	"approval.none":     "No pending approvals",
	"approval.decided":  "approval %s was already decided",

	// Files
	"files.empty": "No files",

	// Interpreter
	"interpreter.running": "running",
	"interpreter.none":    "No interpreter runs",

	// Sessions
	"session.created":  "Created session %s",
	"session.switched": "Switched to session %s",
	"session.none":     "No stored sessions",

	// REPL
	"repl.welcome":     "agentdeck console - type /help for commands",
	"repl.bye":         "Bye.",
	"repl.unknown_cmd": "Unknown command: %s",

	// Errors
	"error.fetch":  "fetch failed: %s",
	"error.config": "config error: %s",
}
