package logx

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler_ChineseLabels(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(NewPrettyHandler(&buf, slog.LevelInfo, "zh-CN", "never"))
	lg.Info("你好", "k", "v")
	out := buf.String()
	if !strings.Contains(out, "[信息]") || !strings.Contains(out, "你好") || !strings.Contains(out, "k=v") {
		t.Fatalf("output = %q", out)
	}
	lg.Debug("quiet")
	if strings.Contains(buf.String(), "quiet") { t.Fatal("debug leaked below level") }
}

func TestPrettyHandler_EnglishLabels(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(NewPrettyHandler(&buf, slog.LevelWarn, "en", "never"))
	lg.Warn("careful")
	if !strings.Contains(buf.String(), "[WARN]") { t.Fatalf("output = %q", buf.String()) }
	if strings.Contains(buf.String(), "\x1b[") { t.Fatal("color codes with color=never") }
}

func TestPrettyHandler_GroupsFlatten(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(NewPrettyHandler(&buf, slog.LevelInfo, "en", "never"))
	lg.WithGroup("req").Info("done", "id", 7, slog.Group("peer", "addr", "::1"))
	out := buf.String()
	if !strings.Contains(out, "req.id=7") || !strings.Contains(out, "req.peer.addr=::1") {
		t.Fatalf("output = %q", out)
	}
}

func TestParseSlogLevel(t *testing.T) {
	if parseSlogLevel("debug") != slog.LevelDebug { t.Fatal("debug") }
	if parseSlogLevel("WARN") != slog.LevelWarn { t.Fatal("warn") }
	if parseSlogLevel("") != slog.LevelInfo { t.Fatal("default") }
	if l, ok := parseSlogLevel("off").(slog.Level); !ok || l < 100 { t.Fatal("off must silence everything") }
}
