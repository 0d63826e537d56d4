// Package config handles bot configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the bot configuration stored in ~/.config/tablebot/config.yml.
type Config struct {
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	DiscordToken string `yaml:"discord_token,omitempty" json:"discord_token,omitempty"`

	// Backend selects the table store: file, sqlite or remote.
	Backend         string  `yaml:"backend,omitempty" json:"backend,omitempty"`
	DataFile        string  `yaml:"data_file,omitempty" json:"data_file,omitempty"`
	SQLitePath      string  `yaml:"sqlite_path,omitempty" json:"sqlite_path,omitempty"`
	RemoteURL       string  `yaml:"remote_url,omitempty" json:"remote_url,omitempty"`
	RemoteSecret    string  `yaml:"remote_secret,omitempty" json:"remote_secret,omitempty"`
	RemoteRateLimit float64 `yaml:"remote_rate_limit,omitempty" json:"remote_rate_limit,omitempty"`

	HealthAddr string `yaml:"health_addr,omitempty" json:"health_addr,omitempty"`

	AuditWebhook     string `yaml:"audit_webhook,omitempty" json:"audit_webhook,omitempty"`
	AuditWebhookKind string `yaml:"audit_webhook_kind,omitempty" json:"audit_webhook_kind,omitempty"`

	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// CommandRate is commands per second allowed per user; CommandBurst is
	// the bucket size.
	CommandRate  float64 `yaml:"command_rate,omitempty" json:"command_rate,omitempty"`
	CommandBurst int     `yaml:"command_burst,omitempty" json:"command_burst,omitempty"`
}

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Webhook kinds for the audit notifier.
const (
	WebhookDiscord = "discord"
	WebhookSlack   = "slack"
)

const (
	DefaultPrefix          = "!"
	DefaultDataFile        = "tables.json"
	DefaultSQLitePath      = "tables.db"
	DefaultHealthAddr      = ":8080"
	DefaultRemoteRateLimit = 10.0
	DefaultCommandRate     = 1.0
	DefaultCommandBurst    = 5
	DefaultLogLevel        = "info"

	// HealthDisabled as health_addr turns the keep-alive server off.
	HealthDisabled = "off"

	// PagerIdleTimeout closes a table display after this long without navigation.
	PagerIdleTimeout = 60 * time.Second
	// ConfirmTimeout resolves a pending deletion as timed out.
	ConfirmTimeout = 30 * time.Second
)

// ValidBackends lists the supported backend values.
var ValidBackends = []string{BackendFile, BackendSQLite, BackendRemote}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.SQLitePath == "" {
		c.SQLitePath = DefaultSQLitePath
	}
	if c.RemoteRateLimit <= 0 {
		c.RemoteRateLimit = DefaultRemoteRateLimit
	}
	if c.CommandRate <= 0 {
		c.CommandRate = DefaultCommandRate
	}
	if c.CommandBurst <= 0 {
		c.CommandBurst = DefaultCommandBurst
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.AuditWebhookKind == "" {
		c.AuditWebhookKind = WebhookDiscord
	}
	c.DataFile = ExpandPath(c.DataFile)
	c.SQLitePath = ExpandPath(c.SQLitePath)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if c.Backend == BackendRemote && c.RemoteURL == "" {
		return fmt.Errorf("backend %q requires remote_url", BackendRemote)
	}
	if c.AuditWebhookKind != WebhookDiscord && c.AuditWebhookKind != WebhookSlack {
		return fmt.Errorf("invalid audit_webhook_kind: %s (valid: %s, %s)", c.AuditWebhookKind, WebhookDiscord, WebhookSlack)
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	return nil
}

// ValidateBackend checks that the backend value is valid.
func ValidateBackend(backend string) error {
	for _, valid := range ValidBackends {
		if backend == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid backend: %s (valid: %v)", backend, ValidBackends)
}

// Masked returns a copy with secrets replaced, for display.
func (c *Config) Masked() *Config {
	out := *c
	out.DiscordToken = mask(out.DiscordToken)
	out.RemoteSecret = mask(out.RemoteSecret)
	out.AuditWebhook = mask(out.AuditWebhook)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
