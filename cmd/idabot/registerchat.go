package main

import (
	"fmt"
	"strconv"

	"log/slog"

	"github.com/spf13/cobra"

	"idabot/core/database"
	"idabot/core/logger"
	"idabot/store"
)

var registerChatCmd = &cobra.Command{
	Use:   "registerchat <chat_id> <name>",
	Short: "Register a Telegram chat so the bot will talk to it",
	Long:  "Registers a Telegram chat. The bot refuses commands from unregistered chats; the chat id doubles as the user id of the timesheet owner.",
	Args:  cobra.ExactArgs(2),
	RunE:  runRegisterChat,
}

func init() {
	rootCmd.AddCommand(registerChatCmd)
}

func runRegisterChat(cmd *cobra.Command, args []string) error {
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", args[0], err)
	}
	name := args[1]

	cfg, err := setup()
	if err != nil {
		return err
	}
	defer shutdownLogger()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := store.NewTimesheetStore(db).RegisterUser(ctx, chatID, name); err != nil {
		return err
	}
	if err := store.NewSessionStore(db).Touch(ctx, chatID); err != nil {
		return err
	}
	logger.CLI.Info("chat registered",
		slog.String("event", "cli.registerchat"),
		slog.Int64("chat_id", chatID),
		slog.String("name", name),
	)
	fmt.Printf("Successfully registered chat %d for %s.\n", chatID, name)
	return nil
}
