package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"idabot/bot"
	"idabot/bot/commands"
	"idabot/core/config"
	"idabot/core/database"
	"idabot/core/logger"
	"idabot/core/telegram"
	"idabot/store"
	"idabot/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the Telegram webhook",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer shutdownLogger()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}

	eng, err := buildEngine(cfg, db, client)
	if err != nil {
		return err
	}
	server := webhook.NewServer(eng, store.NewMessageStore(db), cfg.Telegram)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.CLI.Info("bot serving",
		slog.String("event", "cli.serve"),
		slog.Int("commands", len(eng.Registry.List())),
	)
	return server.Run(ctx, cfg.Webhook)
}

// buildEngine wires the command registry and stores into a dispatcher.
func buildEngine(cfg *config.Config, db *sqlx.DB, client *telegram.Client) (*bot.Engine, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("engine requires config and database")
	}
	registry := bot.NewRegistry()
	commands.RegisterAll(registry)

	return &bot.Engine{
		Registry:   registry,
		Messenger:  client,
		Callbacks:  store.NewCallbackStore(db),
		Sessions:   store.NewSessionStore(db),
		Timesheets: store.NewTimesheetStore(db),
		Rules:      store.NewRuleStore(db),
	}, nil
}
