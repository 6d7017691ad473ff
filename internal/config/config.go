// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// 仅保留当前需要的字段，避免过度设计（KISS/YAGNI）。
type Config struct {
	Database    Database    `yaml:"DATABASE"`
	Cache       Cache       `yaml:"CACHE"`
	Concurrency Concurrency `yaml:"CONCURRENCY"`
	Proxy       Proxy       `yaml:"PROXY"`
	LogLevel    string      `yaml:"LOG_LEVEL"`
	LogFormat   string      `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale   string      `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor    string      `yaml:"LOG_COLOR"`  // auto|always|never
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default)
	DSN  string `yaml:"dsn"`  // ./data.db
}

type Cache struct {
	// MaxTotalBytes：正文缓存聚合上限；MaxEntryBytes：单章上限（超限不缓存）
	MaxTotalBytes int64 `yaml:"max_total_bytes"`
	MaxEntryBytes int64 `yaml:"max_entry_bytes"`
}

type Concurrency struct {
	Fetch int `yaml:"fetch"`
	Retry int `yaml:"retry"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

func Load(path string) (*Config, error) {
	// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./data.db"
	}
	if c.Cache.MaxTotalBytes < 0 || c.Cache.MaxEntryBytes < 0 {
		return errors.New("CACHE limits must be >= 0")
	}
	if c.Cache.MaxTotalBytes == 0 {
		c.Cache.MaxTotalBytes = 10 << 20
	}
	if c.Cache.MaxEntryBytes == 0 {
		c.Cache.MaxEntryBytes = 100 << 10
	}
	if c.Concurrency.Fetch <= 0 {
		c.Concurrency.Fetch = 8
	}
	if c.Concurrency.Retry < 0 {
		c.Concurrency.Retry = 2
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
