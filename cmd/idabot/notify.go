package main

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"idabot/bot"
	"idabot/core/database"
	"idabot/core/logger"
	"idabot/core/telegram"
	"idabot/store"
)

var forceRun bool

var sendReminderCmd = &cobra.Command{
	Use:   "sendreminder",
	Short: "Remind every known chat to register work",
	RunE:  runSendReminder,
}

var startRegisterWorkCmd = &cobra.Command{
	Use:   "startregisterwork",
	Short: "Start a /registerwork conversation in every known chat",
	Long:  "Starts a /registerwork conversation in every known chat. Runs on weekdays only unless --force is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return broadcastCommand(cmd, "/registerwork", func(now time.Time) bool {
			return now.Weekday() != time.Saturday && now.Weekday() != time.Sunday
		})
	},
}

var startCompleteTimesheetCmd = &cobra.Command{
	Use:   "startcompletetimesheet",
	Short: "Start a /completetimesheet conversation in every known chat",
	Long:  "Starts a /completetimesheet conversation in every known chat. Runs on the last day of the month only unless --force is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return broadcastCommand(cmd, "/completetimesheet", func(now time.Time) bool {
			return now.AddDate(0, 0, 1).Day() == 1
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{sendReminderCmd, startRegisterWorkCmd, startCompleteTimesheetCmd} {
		c.Flags().BoolVar(&forceRun, "force", false, "run regardless of the schedule predicate")
		rootCmd.AddCommand(c)
	}
}

func runSendReminder(cmd *cobra.Command, _ []string) error {
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

	client, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	chats, err := store.NewSessionStore(db).ListChats(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, chatID := range chats {
		err := client.SendWithReplyKeyboard(ctx, chatID, "Do not forget to register your work today!", []string{"/registerwork"})
		if err != nil {
			failed++
			logger.CLI.Error("reminder failed",
				slog.String("event", "cli.reminder"),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		fmt.Printf("Successfully sent the reminder to chat %d.\n", chatID)
	}
	if failed > 0 {
		return fmt.Errorf("failed to send %d of %d reminders", failed, len(chats))
	}
	return nil
}

// broadcastCommand starts the given slash command in every known chat
// when the schedule predicate holds for the current time.
func broadcastCommand(cmd *cobra.Command, command string, shouldRun func(time.Time) bool) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer shutdownLogger()

	if !forceRun && !shouldRun(time.Now()) {
		logger.CLI.Info("schedule predicate not met, skipping",
			slog.String("event", "cli.broadcast.skip"),
			slog.String("command", command),
		)
		return nil
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

	ctx := cmd.Context()
	chats, err := eng.Sessions.ListChats(ctx)
	if err != nil {
		return err
	}

	for _, chatID := range chats {
		if err := eng.Dispatch(ctx, bot.CommandUpdate(chatID, command)); err != nil {
			logger.CLI.Error("broadcast dispatch failed",
				slog.String("event", "cli.broadcast"),
				slog.String("command", command),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		fmt.Printf("Started the command for chat %d.\n", chatID)
	}
	return nil
}
