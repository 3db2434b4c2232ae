package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// catalogs 按 locale 注册的文案表；英文始终是兜底层
// catalogs maps a normalized locale to its message overlay. English is always
// the base layer, other locales overlay it.
var catalogs = map[string]map[string]string{
	"en":    EnMessages,
	"zh-CN": ZhCNMessages,
}

// I18n resolves message keys for one locale. The message table is immutable
// after construction.
type I18n struct {
	locale   string
	messages map[string]string
}

var (
	global     *I18n
	globalOnce sync.Once
)

// Global 返回全局 i18n 实例
// Global returns the process-wide instance, creating it from the environment
// on first use.
func Global() *I18n {
	globalOnce.Do(func() {
		if global == nil {
			global = New("")
		}
	})
	return global
}

// Init 初始化全局 i18n 实例 / Init replaces the process-wide instance.
func Init(locale string) {
	global = New(locale)
}

// T 全局翻译快捷函数 / T is the global translation shortcut.
func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// New 创建 i18n 实例 / New builds an instance for the given locale, falling
// back to environment detection when locale is empty.
func New(locale string) *I18n {
	resolved := resolveLocale(locale)

	messages := make(map[string]string, len(EnMessages))
	for k, v := range EnMessages {
		messages[k] = v
	}
	if overlay, ok := catalogs[resolved]; ok && resolved != "en" {
		for k, v := range overlay {
			messages[k] = v
		}
	}

	return &I18n{locale: resolved, messages: messages}
}

// T 翻译；未知 key 原样返回 / T translates a key, formatting args into the
// message. Unknown keys come back verbatim so missing entries stay visible.
func (i *I18n) T(key string, args ...any) string {
	tmpl, ok := i.messages[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回当前 locale / Locale returns the normalized locale in effect.
func (i *I18n) Locale() string {
	return i.locale
}

// resolveLocale 显式值优先，其次环境变量
// resolveLocale prefers an explicit value, then the environment, then "en".
func resolveLocale(explicit string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return normalizeLocale(v)
	}
	for _, env := range []string{"DECK_LANG", "LANG", "LC_ALL", "LC_MESSAGES"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return normalizeLocale(v)
		}
	}
	return "en"
}

// DetectLocale 自动检测 locale / DetectLocale reads the locale from the
// environment.
func DetectLocale() string {
	return resolveLocale("")
}

// normalizeLocale 归一化：去掉编码后缀，zh* 归入 zh-CN
// normalizeLocale strips the encoding suffix (".UTF-8") and folds every zh
// variant into zh-CN, every en variant into en.
func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "en"
	}
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")
	switch {
	case strings.HasPrefix(strings.ToLower(s), "zh"):
		return "zh-CN"
	case strings.HasPrefix(strings.ToLower(s), "en"):
		return "en"
	}
	return s
}
