// Package main provides the tablebot CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/tablebot/internal/config"
	"github.com/matsen/tablebot/internal/storage"
	"github.com/matsen/tablebot/internal/table"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath overrides the global config file location
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errCancelled) {
			os.Exit(ExitCancelled)
		}
		// SilenceErrors is set, so cobra errors must be printed here
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tablebot",
	Short: "Discord bot for shared tables",
	Long: `tablebot lets members of a Discord server create and edit simple named
tables with chat commands.

Run 'tablebot serve' to connect the bot. The other commands inspect and
maintain the stored tables offline, using the same storage backend.

Offline commands output JSON by default. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for DISCORD_TOKEN)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/tablebot/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads and validates configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenRegistry opens the configured store, exits on error.
// The caller is responsible for calling the returned close function.
func mustOpenRegistry(cfg *config.Config) (table.Store, *table.Registry, func() error) {
	store, closeStore, err := storage.Open(cfg)
	if err != nil {
		exitWithError(ExitError, "opening %s storage: %v", cfg.Backend, err)
	}
	return store, table.NewRegistry(store), closeStore
}
