package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matsen/tablebot/internal/command"
	"github.com/matsen/tablebot/internal/config"
	"github.com/matsen/tablebot/internal/discord"
	"github.com/matsen/tablebot/internal/health"
	"github.com/matsen/tablebot/internal/logging"
	"github.com/matsen/tablebot/internal/notify"
	"github.com/matsen/tablebot/internal/session"
)

// healthProbeScope is listed by the storage health check.
const healthProbeScope = "_health"

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect the bot to Discord",
	Long: `Connect to the Discord gateway and answer table commands until interrupted.

The bot token comes from DISCORD_TOKEN (environment or .env) or discord_token
in the config file. A keep-alive HTTP server runs on health_addr unless it
is set to "off".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		exitWithError(ExitConfigError, "invalid log_level: %v", err)
	}

	store, registry, closeStore := mustOpenRegistry(cfg)
	defer closeStore()

	sessions := session.NewManager(
		session.WithLogger(logger),
		session.WithPagerIdle(config.PagerIdleTimeout),
		session.WithConfirmTimeout(config.ConfirmTimeout),
	)
	defer sessions.Close()

	dispatcher := command.NewDispatcher(registry, sessions,
		command.WithPrefix(cfg.Prefix),
		command.WithLogger(logger),
		command.WithNotifier(notify.New(cfg.AuditWebhook, cfg.AuditWebhookKind)),
		command.WithUserRateLimit(cfg.CommandRate, cfg.CommandBurst),
	)

	if cfg.HealthAddr != config.HealthDisabled {
		hs := health.NewServer(cfg.HealthAddr, Version, logger)
		hs.RegisterCheck("storage", func(ctx context.Context) error {
			_, err := store.ListNames(ctx, healthProbeScope)
			return err
		})
		if err := hs.Start(); err != nil {
			exitWithError(ExitError, "starting health server: %v", err)
		}
		defer hs.Stop()
	}

	bot, err := discord.New(cfg.DiscordToken, dispatcher, sessions, logger)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := bot.Open(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer bot.Close()

	logger.Info("bot running", "backend", cfg.Backend, "prefix", cfg.Prefix)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	return nil
}
