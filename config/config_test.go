package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	SetConfigDir(t.TempDir())
	defer SetConfigDir("")
	t.Setenv(EnvWebhookURL, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != "file" || cfg.Storage.Key != "chat-messages" {
		t.Fatalf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.Panel.Width != defaultPanelWidth || cfg.Panel.Height != defaultPanelHeight {
		t.Fatalf("panel defaults = %+v", cfg.Panel)
	}
	if cfg.Webhook.Timeout != defaultWebhookTimeout {
		t.Fatalf("webhook timeout = %d, want %d", cfg.Webhook.Timeout, defaultWebhookTimeout)
	}
	if len(cfg.QuickReplies) == 0 {
		t.Fatal("expected default quick replies")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)
	defer SetConfigDir("")
	t.Setenv(EnvWebhookURL, "")

	cfg := DefaultConfig()
	cfg.Webhook.URL = "https://hooks.example.com/chat"
	cfg.Panel.X = 10
	cfg.Panel.Y = 4
	cfg.Storage.Backend = "sqlite"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, configFileName)); err != nil {
		t.Fatalf("config file missing: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Webhook.URL != cfg.Webhook.URL {
		t.Fatalf("Webhook.URL = %q, want %q", got.Webhook.URL, cfg.Webhook.URL)
	}
	if got.Panel.X != 10 || got.Panel.Y != 4 {
		t.Fatalf("Panel = %+v", got.Panel)
	}
	if got.Storage.Backend != "sqlite" {
		t.Fatalf("Storage.Backend = %q", got.Storage.Backend)
	}
}

func TestEnvOverridesWebhookURL(t *testing.T) {
	SetConfigDir(t.TempDir())
	defer SetConfigDir("")
	t.Setenv(EnvWebhookURL, "http://127.0.0.1:9999/hook")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Webhook.URL != "http://127.0.0.1:9999/hook" {
		t.Fatalf("Webhook.URL = %q", cfg.Webhook.URL)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)
	defer SetConfigDir("")

	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte("webhook: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Panel:   PanelConfig{Width: 30, Height: 12, X: 3, Y: 0},
		Storage: StorageConfig{Backend: "memory"},
		Logging: LoggingConfig{Level: "debug"},
	}
	cfg.applyDefaults()

	if cfg.Panel.Width != 30 || cfg.Panel.Height != 12 || cfg.Panel.X != 3 || cfg.Panel.Y != 0 {
		t.Fatalf("Panel = %+v", cfg.Panel)
	}
	if cfg.Storage.Backend != "memory" {
		t.Fatalf("Storage.Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Enabled == nil || !*cfg.Logging.Enabled {
		t.Fatalf("Logging = %+v", cfg.Logging)
	}
}

func TestResolvePathRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)
	defer SetConfigDir("")

	got, err := ResolvePath("data")
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if got != filepath.Join(dir, "data") {
		t.Fatalf("ResolvePath() = %q", got)
	}
	abs := filepath.Join(dir, "elsewhere")
	if got, _ := ResolvePath(abs); got != abs {
		t.Fatalf("ResolvePath(abs) = %q", got)
	}
}

func TestSaveFailureRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	SetConfigDir(dir)
	defer SetConfigDir("")

	// A directory in place of config.yaml makes the final rename fail.
	path := filepath.Join(dir, configFileName)
	if err := os.MkdirAll(filepath.Join(path, "occupied"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := DefaultConfig().Save()
	if err == nil {
		t.Fatal("Save() succeeded over a directory")
	}
	if !strings.Contains(err.Error(), "replace config") {
		t.Fatalf("Save() error = %v, want wrapped rename error", err)
	}
	if _, statErr := os.Stat(path + ".tmp"); !os.IsNotExist(statErr) {
		t.Fatalf("temp file left behind: %v", statErr)
	}
}
