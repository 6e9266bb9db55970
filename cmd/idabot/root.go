package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"idabot/core/buildinfo"
	"idabot/core/config"
	"idabot/core/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "idabot",
	Short:        "IDA timesheet bot for Telegram",
	Long:         "idabot runs the IDA Telegram bot: a webhook server plus maintenance commands for timesheet registration workflows.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = buildinfo.Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default $CONFIG_PATH or config.yaml)")
}

// setup loads configuration and initializes logging. Every subcommand
// that talks to Telegram or the database goes through it.
func setup() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

func shutdownLogger() {
	if err := logger.Shutdown(); err != nil {
		log.Printf("logger shutdown error: %v", err)
	}
}
