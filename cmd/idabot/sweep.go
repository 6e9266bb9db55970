package main

import (
	"fmt"

	"log/slog"

	"github.com/spf13/cobra"

	"idabot/core/database"
	"idabot/core/logger"
	"idabot/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete stale callback records",
	Long:  "Deletes callback records older than sweep.max_age. Abandoned conversations leave their button records behind; this reclaims them.",
	RunE:  runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
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

	deleted, err := store.NewCallbackStore(db).DeleteOlderThan(cmd.Context(), cfg.Sweep.MaxAge)
	if err != nil {
		return err
	}
	logger.CLI.Info("sweep finished",
		slog.String("event", "cli.sweep"),
		slog.Int64("deleted", deleted),
		slog.Duration("max_age", cfg.Sweep.MaxAge),
	)
	fmt.Printf("Deleted %d stale callback records.\n", deleted)
	return nil
}
