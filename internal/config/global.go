package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "tablebot"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables that override the config file.
const (
	EnvDiscordToken = "DISCORD_TOKEN"
	EnvBackend      = "TABLEBOT_BACKEND"
	EnvRemoteURL    = "TABLEBOT_REMOTE_URL"
	EnvRemoteSecret = "TABLEBOT_REMOTE_SECRET"
	EnvHealthAddr   = "TABLEBOT_HEALTH_ADDR"
	EnvPort         = "PORT"
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/tablebot/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// Load reads the config file at path, or the global config path when path
// is empty, then applies environment overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GlobalConfigPath()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDiscordToken); v != "" {
		c.DiscordToken = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvRemoteURL); v != "" {
		c.RemoteURL = v
	}
	if v := os.Getenv(EnvRemoteSecret); v != "" {
		c.RemoteSecret = v
	}
	if v := os.Getenv(EnvHealthAddr); v != "" {
		c.HealthAddr = v
	} else if c.HealthAddr == "" {
		// Hosting platforms hand the keep-alive port over in PORT.
		if port, err := strconv.Atoi(os.Getenv(EnvPort)); err == nil && port > 0 {
			c.HealthAddr = fmt.Sprintf(":%d", port)
		} else {
			c.HealthAddr = DefaultHealthAddr
		}
	}
}
