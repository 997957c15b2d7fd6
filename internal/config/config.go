package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage backends accepted by STORAGE.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	UI      UIConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Port       string `env:"PORT" envDefault:"3001"`
	CORSOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Addr is derived from Port by Load.
	Addr string
}

// StorageConfig 描述角色数据的存储位置。
type StorageConfig struct {
	Kind            string `env:"STORAGE" envDefault:"file"`
	DataFile        string `env:"DATA_FILE" envDefault:"characters.json"`
	CreateIfMissing bool   `env:"DATA_CREATE_IF_MISSING" envDefault:"true"`
}

// UIConfig 控制内置页面。
type UIConfig struct {
	Enabled bool `env:"UI_ENABLED" envDefault:"true"`
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	addr, err := resolveAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveAddr 解析服务器监听地址。
func resolveAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "3001"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3001" 或 "127.0.0.1:3001"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func (c *StorageConfig) validate() error {
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	c.DataFile = strings.TrimSpace(c.DataFile)

	switch c.Kind {
	case StorageFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE must not be empty when STORAGE=%s", StorageFile)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE value %q: want %q or %q", c.Kind, StorageFile, StorageMemory)
	}
	return nil
}

// String returns a one-line summary for startup logs.
func (c *Config) String() string {
	target := c.Storage.Kind
	if c.Storage.Kind == StorageFile {
		target = c.Storage.DataFile
	}
	return fmt.Sprintf("Config{addr: %s, storage: %s, ui: %t}", c.Server.Addr, target, c.UI.Enabled)
}
