package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"idabot/bot"
	"idabot/core/database"
	"idabot/core/logger"
	"idabot/core/telegram"
	"idabot/store"
	"idabot/timesheet"
)

var displayMissingDaysCmd = &cobra.Command{
	Use:   "displaymissingdays",
	Short: "Message every known chat listing the days missing from their timesheets",
	RunE:  runDisplayMissingDays,
}

func init() {
	rootCmd.AddCommand(displayMissingDaysCmd)
}

func runDisplayMissingDays(cmd *cobra.Command, _ []string) error {
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
	sheets := store.NewTimesheetStore(db)

	var failed int
	for _, chatID := range chats {
		text, err := missingDaysText(ctx, sheets, chatID, time.Now())
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if err := client.SendMessage(ctx, chatID, text, nil, 0); err != nil {
			failed++
			logger.CLI.Error("missing days message failed",
				slog.String("event", "cli.missingdays"),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		fmt.Printf("Successfully sent the message to chat %d.\n", chatID)
	}
	if failed > 0 {
		return fmt.Errorf("failed to send %d of %d messages", failed, len(chats))
	}
	return nil
}

// missingDaysText lists the weekdays still missing a standard item across
// the chat's draft timesheets, oldest first. Empty when nothing is missing.
func missingDaysText(ctx context.Context, sheets store.TimesheetStore, chatID int64, now time.Time) (string, error) {
	drafts, err := sheets.DraftTimesheets(ctx, chatID)
	if err != nil {
		return "", err
	}

	type missing struct {
		date string
		line string
	}
	var found []missing
	for _, t := range drafts {
		items, err := sheets.Items(ctx, t.ID)
		if err != nil {
			return "", err
		}
		for _, day := range timesheet.MissingDays(t, items, now) {
			date := day.Format(bot.DateLayout)
			found = append(found, missing{date: date, line: fmt.Sprintf("%s: %s", t.ProjectName, date)})
		}
	}
	if len(found) == 0 {
		return "", nil
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].date < found[j].date })
	lines := make([]string, len(found))
	for i, m := range found {
		lines[i] = m.line
	}
	return "You have missing days in your timesheets:\n" + strings.Join(lines, "\n"), nil
}
