package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"idabot/core/telegram"
)

var setWebhookCmd = &cobra.Command{
	Use:   "setwebhook",
	Short: "Register the webhook URL with Telegram",
	Long:  "Registers webhook.url with the Telegram Bot API. Once set, getUpdates polling no longer works for this bot.",
	RunE:  runSetWebhook,
}

var deleteWebhookCmd = &cobra.Command{
	Use:   "deletewebhook",
	Short: "Remove the registered webhook",
	RunE:  runDeleteWebhook,
}

func init() {
	rootCmd.AddCommand(setWebhookCmd, deleteWebhookCmd)
}

func runSetWebhook(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer shutdownLogger()

	if cfg.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is not configured")
	}
	client, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}
	if err := client.SetWebhook(cmd.Context(), cfg.Webhook.URL, cfg.Telegram.WebhookToken); err != nil {
		return err
	}
	fmt.Printf("Successfully set webhook to %q\n", cfg.Webhook.URL)
	return nil
}

func runDeleteWebhook(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer shutdownLogger()

	client, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}
	if err := client.DeleteWebhook(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Successfully removed the webhook")
	return nil
}
