package config

const (
	defaultWebhookTimeout = 60
	defaultPanelWidth     = 48
	defaultPanelHeight    = 20
	defaultPanelX         = -52
	defaultPanelY         = 2
	defaultPanelTitle     = "Chat Assistant"
	defaultStorageBackend = "file"
	defaultStorageKey     = "chat-messages"
	defaultStorageDir     = "data"
	defaultSQLitePath     = "data/floatchat.db"
	defaultRedisPrefix    = "floatchat:"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Webhook: WebhookConfig{
			Timeout: defaultWebhookTimeout,
		},
		Panel: PanelConfig{
			Width:  defaultPanelWidth,
			Height: defaultPanelHeight,
			X:      defaultPanelX,
			Y:      defaultPanelY,
			Title:  defaultPanelTitle,
		},
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
			Key:     defaultStorageKey,
			Dir:     defaultStorageDir,
		},
		QuickReplies: defaultQuickReplies(),
		Logging:      defaultLoggingConfig(),
	}
}

func defaultQuickReplies() []QuickReplyConfig {
	return []QuickReplyConfig{
		{Label: "Lead report", Message: "generate a report of the leads"},
		{Label: "Meetings today", Message: "how many meetings do I have today"},
		{Label: "Revenue yesterday", Message: "how much did I bill yesterday"},
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		File:    "logs/floatchat.log",
	}
}

func (c *Config) applyDefaults() {
	if c.Webhook.Timeout < 0 {
		c.Webhook.Timeout = 0
	}

	if c.Panel.Width <= 0 {
		c.Panel.Width = defaultPanelWidth
	}
	if c.Panel.Height <= 0 {
		c.Panel.Height = defaultPanelHeight
	}
	if c.Panel.X == 0 && c.Panel.Y == 0 {
		c.Panel.X = defaultPanelX
		c.Panel.Y = defaultPanelY
	}
	if c.Panel.Title == "" {
		c.Panel.Title = defaultPanelTitle
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaultStorageKey
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = defaultStorageDir
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultSQLitePath
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = defaultRedisPrefix
	}

	if c.QuickReplies == nil {
		c.QuickReplies = defaultQuickReplies()
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.File = def.File
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
