package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every override variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDiscordToken, EnvBackend, EnvRemoteURL, EnvRemoteSecret, EnvHealthAddr, EnvPort} {
		t.Setenv(key, "")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/tablebot/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "tablebot", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prefix != DefaultPrefix {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, DefaultPrefix)
	}
	if cfg.Backend != BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendFile)
	}
	if cfg.DataFile != DefaultDataFile {
		t.Errorf("DataFile = %q, want %q", cfg.DataFile, DefaultDataFile)
	}
	if cfg.HealthAddr != DefaultHealthAddr {
		t.Errorf("HealthAddr = %q, want %q", cfg.HealthAddr, DefaultHealthAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_Valid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `prefix: "?"
backend: sqlite
sqlite_path: /var/lib/tablebot/tables.db
health_addr: "off"
audit_webhook: https://hooks.slack.com/services/T/B/X
audit_webhook_kind: slack
command_rate: 2
command_burst: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prefix != "?" {
		t.Errorf("Prefix = %q", cfg.Prefix)
	}
	if cfg.Backend != BackendSQLite {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.SQLitePath != "/var/lib/tablebot/tables.db" {
		t.Errorf("SQLitePath = %q", cfg.SQLitePath)
	}
	if cfg.HealthAddr != HealthDisabled {
		t.Errorf("HealthAddr = %q", cfg.HealthAddr)
	}
	if cfg.AuditWebhookKind != WebhookSlack {
		t.Errorf("AuditWebhookKind = %q", cfg.AuditWebhookKind)
	}
	if cfg.CommandRate != 2 || cfg.CommandBurst != 3 {
		t.Errorf("command limiter = %v/%d", cfg.CommandRate, cfg.CommandBurst)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("prefix: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("backend: file\ndiscord_token: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvDiscordToken, "from-env")
	t.Setenv(EnvBackend, BackendRemote)
	t.Setenv(EnvRemoteURL, "https://example.firebaseio.com")
	t.Setenv(EnvPort, "3000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DiscordToken != "from-env" {
		t.Errorf("DiscordToken = %q, want from-env", cfg.DiscordToken)
	}
	if cfg.Backend != BackendRemote || cfg.RemoteURL != "https://example.firebaseio.com" {
		t.Errorf("remote override not applied: %q %q", cfg.Backend, cfg.RemoteURL)
	}
	if cfg.HealthAddr != ":3000" {
		t.Errorf("HealthAddr = %q, want :3000", cfg.HealthAddr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{name: "unknown backend", modify: func(c *Config) { c.Backend = "mongo" }, wantErr: true},
		{name: "remote without url", modify: func(c *Config) { c.Backend = BackendRemote }, wantErr: true},
		{name: "remote with url", modify: func(c *Config) {
			c.Backend = BackendRemote
			c.RemoteURL = "https://x.firebaseio.com"
		}},
		{name: "bad webhook kind", modify: func(c *Config) { c.AuditWebhookKind = "teams" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.DiscordToken = "MTIzNDU2Nzg5.secret.token"
	cfg.RemoteSecret = "short"

	m := cfg.Masked()
	if m.DiscordToken != "MTIz****" {
		t.Errorf("DiscordToken masked = %q", m.DiscordToken)
	}
	if m.RemoteSecret != "****" {
		t.Errorf("RemoteSecret masked = %q", m.RemoteSecret)
	}
	if cfg.DiscordToken != "MTIzNDU2Nzg5.secret.token" {
		t.Error("Masked modified the original")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/tables.json"); got != filepath.Join(home, "tables.json") {
		t.Errorf("ExpandPath(~/tables.json) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
}
