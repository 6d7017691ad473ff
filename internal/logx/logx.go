// 包 logx 是进程内唯一的日志出口：底层为标准库 slog，
// 额外提供面向人读的 pretty Handler（中英文等级标签、可选 ANSI 彩色）。
// 业务代码只经 Debugf/Infof/Warnf/Errorf 打点，不直接触碰 slog API。
package logx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// levelOff 高于一切内建级别；配置 off/none/silent 时整体静音。
const levelOff = slog.Level(100)

// Init 依配置装配全局日志器。format 取 pretty/json/text；
// locale 与 colorMode 只对 pretty 生效。
func Init(level, format, locale, colorMode string) {
	lv := parseSlogLevel(level)
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lv})
	case "pretty", "":
		h = NewPrettyHandler(os.Stdout, lv, locale, colorMode)
	default:
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv})
	}
	slog.SetDefault(slog.New(h))
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
	"off":     levelOff,
	"none":    levelOff,
	"silent":  levelOff,
}

// parseSlogLevel 解析级别名；空串与未知值回落到 info。
func parseSlogLevel(s string) slog.Leveler {
	if lv, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lv
	}
	return slog.LevelInfo
}

// 便捷函数：格式化并按级别输出
func Debugf(format string, v ...any) { slog.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { slog.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { slog.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { slog.Error(fmt.Sprintf(format, v...)) }

var (
	zhLabels = map[slog.Level]string{
		slog.LevelDebug: "[调试]",
		slog.LevelInfo:  "[信息]",
		slog.LevelWarn:  "[警告]",
		slog.LevelError: "[错误]",
	}
	enLabels = map[slog.Level]string{
		slog.LevelDebug: "[DEBUG]",
		slog.LevelInfo:  "[INFO]",
		slog.LevelWarn:  "[WARN]",
		slog.LevelError: "[ERROR]",
	}
	ansiByLevel = map[slog.Level]string{
		slog.LevelDebug: "\x1b[90m",
		slog.LevelInfo:  "\x1b[36m",
		slog.LevelWarn:  "\x1b[33m",
		slog.LevelError: "\x1b[31m",
	}
)

// PrettyHandler 把记录渲染成"时间 标签 消息 k=v…"的单行文本。
// 多 goroutine 共享同一 writer 时由互斥锁串行化写出。
type PrettyHandler struct {
	out    io.Writer
	min    slog.Leveler
	labels map[slog.Level]string
	paint  bool
	mu     *sync.Mutex
	prefix string      // WithGroup 累积的 key 前缀（形如 "a.b."）
	fixed  []slog.Attr // WithAttrs 预绑定的属性
}

// NewPrettyHandler 构造 pretty Handler。locale 以 zh 开头（或为空）用中文标签；
// colorMode 取 always/never/auto，auto 依据 NO_COLOR 与是否字符设备。
func NewPrettyHandler(w io.Writer, lv slog.Leveler, locale, colorMode string) slog.Handler {
	if w == nil {
		w = os.Stdout
	}
	labels := enLabels
	if locale == "" || strings.HasPrefix(strings.ToLower(locale), "zh") {
		labels = zhLabels
	}
	return &PrettyHandler{
		out:    w,
		min:    lv,
		labels: labels,
		paint:  wantColor(w, colorMode),
		mu:     &sync.Mutex{},
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, l slog.Level) bool {
	min := slog.LevelInfo
	if h.min != nil {
		min = h.min.Level()
	}
	return min < levelOff && l >= min
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b bytes.Buffer
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	b.WriteString(when.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	label, ok := h.labels[r.Level]
	if !ok {
		label = fmt.Sprintf("[L%d]", r.Level)
	}
	if h.paint {
		b.WriteString(ansiByLevel[r.Level])
		b.WriteString(label)
		b.WriteString("\x1b[0m")
	} else {
		b.WriteString(label)
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	for _, a := range h.fixed {
		writeAttr(&b, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(b.Bytes())
	return err
}

// writeAttr 把属性展平为 " key=value"；slog.Group 递归展开为 group.key。
func writeAttr(b *bytes.Buffer, prefix string, a slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", g)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.fixed = append(append([]slog.Attr{}, h.fixed...), attrs...)
	return &cp
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

// wantColor 决定是否着色：NO_COLOR 一票否决，always/never 显式指定，
// auto（含空值）要求 writer 是字符设备。
func wantColor(w io.Writer, mode string) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "auto", "":
		f, ok := w.(*os.File)
		if !ok {
			return false
		}
		st, err := f.Stat()
		return err == nil && st.Mode()&os.ModeCharDevice != 0
	default:
		return false
	}
}
