package i18n

// ZhCNMessages 简体中文消息目录
// ZhCNMessages Simplified Chinese message catalog
var ZhCNMessages = map[string]string{
	// 面板标题
	"panel.chat":        "对话",
	"panel.tasks":       "任务",
	"panel.approvals":   "审批",
	"panel.files":       "文件",
	"panel.interpreter": "解释器",
	"panel.logs":        "日志",

	// 状态栏
	"status.connected":    "已连接",
	"status.disconnected": "连接断开: %s",
	"status.reconnecting": "重连中...",
	"status.ready":        "就绪",
	"status.streaming":    "生成中...",
	"status.interrupted":  "生成已中断",
	"status.loading":      "加载中...",
	"status.tokens":       "%d tokens",

	// 对话
	"chat.send_failed": "抱歉，无法连接到智能体，请稍后重试。",
	"chat.empty_reply": "（智能体未返回文本）",
	"chat.you":         "我",
	"chat.assistant":   "助手",

	// 输入框
	"input.placeholder": "输入消息，回车发送",

	// 代理兜底回复（嵌入原始用户文本）
	"proxy.fallback": "收到您的消息：\"%s\"。智能体服务暂时不可用，请稍后重试。",

	// 任务
	"tasks.todos":       "待办",
	"tasks.plans":       "计划",
	"tasks.backlogs":    "暂存",
	"tasks.done_total":  "已完成 %d/%d",
	"tasks.empty":       "暂无条目",
	"tasks.promoted":    "暂存条目已晋升为待办",
	"tasks.add_usage":   "用法: /todo add <标题>",
	"tasks.not_found":   "找不到条目: %s",
	"tasks.toggle_fail": "切换失败: %s",

	// 审批
	"approval.pending":  "待审批",
	"approval.approved": "已批准",
	"approval.rejected": "已拒绝",
	"approval.none":     "暂无待审批请求",
	"approval.decided":  "审批 %s 已有结论",

	// 文件
	"files.empty": "暂无文件",

	// 解释器
	"interpreter.running": "运行中",
	"interpreter.none":    "暂无执行记录",

	// 会话
	"session.created":  "已创建会话 %s",
	"session.switched": "已切换到会话 %s",
	"session.none":     "暂无历史会话",

	// REPL
	"repl.welcome":     "agentdeck 控制台，输入 /help 查看命令",
	"repl.bye":         "再见。",
	"repl.unknown_cmd": "未知命令: %s",

	// 错误
	"error.fetch":  "获取失败: %s",
	"error.config": "配置错误: %s",
}
