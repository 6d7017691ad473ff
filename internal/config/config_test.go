package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	f := filepath.Join(t.TempDir(), "settings.yaml")
	_ = os.WriteFile(f, []byte("LOG_LEVEL: debug\n"), 0644)
	c, err := Load(f)
	if err != nil { t.Fatalf("load: %v", err) }
	if c.Database.Type != "sqlite" || c.Database.DSN != "./data.db" { t.Fatalf("db defaults: %+v", c.Database) }
	if c.Cache.MaxTotalBytes != 10<<20 || c.Cache.MaxEntryBytes != 100<<10 { t.Fatalf("cache defaults: %+v", c.Cache) }
	if c.Concurrency.Fetch != 8 || c.Concurrency.Retry != 2 { t.Fatalf("concurrency defaults: %+v", c.Concurrency) }
	if c.LogFormat != "pretty" || c.LogLocale != "zh-CN" || c.LogColor != "auto" { t.Fatalf("log defaults: %+v", c) }
	if c.LogLevel != "debug" { t.Fatalf("explicit value lost: %q", c.LogLevel) }
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "c.yaml")
	_ = os.WriteFile(f, []byte("DATABASE:\n  type: postgres\n"), 0644)
	if _, err := Load(f); err == nil { t.Fatal("unsupported db type accepted") }

	_ = os.WriteFile(f, []byte("CACHE:\n  max_total_bytes: -1\n"), 0644)
	if _, err := Load(f); err == nil { t.Fatal("negative cache limit accepted") }

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil { t.Fatal("missing file accepted") }
}
