// Package config handles configuration loading and saving.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/linanwx/floatchat/logger"
)

const (
	configFileName = "config.yaml"
	configDirName  = ".floatchat"

	// EnvWebhookURL overrides Webhook.URL when set.
	EnvWebhookURL = "FLOATCHAT_WEBHOOK_URL"
)

var configDirOverride string

// SetConfigDir overrides the config directory for the current process.
// Empty value clears the override.
func SetConfigDir(dir string) {
	configDirOverride = strings.TrimSpace(dir)
}

// Config is the root configuration structure.
type Config struct {
	Webhook      WebhookConfig      `json:"webhook" yaml:"webhook"`
	Panel        PanelConfig        `json:"panel" yaml:"panel"`
	Storage      StorageConfig      `json:"storage" yaml:"storage"`
	QuickReplies []QuickReplyConfig `json:"quickReplies,omitempty" yaml:"quickReplies,omitempty"`
	Logging      LoggingConfig      `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// WebhookConfig describes the reply endpoint.
type WebhookConfig struct {
	URL     string            `json:"url" yaml:"url"`
	Timeout int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // seconds, 0 = no deadline
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// PanelConfig sizes and places the floating panel, in terminal cells.
// Negative X/Y are offsets from the right/bottom edge.
type PanelConfig struct {
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
}

// StorageConfig selects the message log backend.
type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"`                   // file, memory, redis, sqlite
	Key     string `json:"key,omitempty" yaml:"key,omitempty"`       // defaults to chat-messages
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`       // file backend, relative to config dir
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`     // sqlite database, relative to config dir
	Redis   string `json:"redis,omitempty" yaml:"redis,omitempty"`   // redis URL, e.g. redis://localhost:6379/0
	Prefix  string `json:"prefix,omitempty" yaml:"prefix,omitempty"` // redis key prefix
	TTL     int    `json:"ttl,omitempty" yaml:"ttl,omitempty"`       // redis key TTL in seconds
}

// QuickReplyConfig is a canned prompt offered in the panel.
type QuickReplyConfig struct {
	Label   string `json:"label" yaml:"label"`
	Message string `json:"message" yaml:"message"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Level   string `json:"level,omitempty" yaml:"level,omitempty"`   // debug, info, warn, error
	Stdout  bool   `json:"stdout,omitempty" yaml:"stdout,omitempty"` // log to stdout
	File    string `json:"file,omitempty" yaml:"file,omitempty"`     // log file path
}

// ConfigDir returns the directory holding config.yaml and local data.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigPath returns the path of config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads config.yaml, applies defaults and environment overrides.
// A missing file yields the default config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("no usable .env file", "err", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = DefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save writes cfg to config.yaml, creating the config dir if needed.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// ResolvePath makes a relative path absolute against the config dir.
func ResolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}

// BuildLoggerConfig converts the logging section for logger.Init.
func (c *Config) BuildLoggerConfig() logger.Config {
	enabled := true
	if c.Logging.Enabled != nil {
		enabled = *c.Logging.Enabled
	}
	return logger.Config{
		Enabled: enabled,
		Level:   c.Logging.Level,
		Stdout:  c.Logging.Stdout,
		File:    c.Logging.File,
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvWebhookURL)); v != "" {
		c.Webhook.URL = v
	}
}
