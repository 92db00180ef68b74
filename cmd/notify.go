package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qirune/anyrouter-checkin/internal/adapters/notify"
)

func newNotifyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification channel utilities",
	}

	cmd.AddCommand(newNotifyTestCmd(app))

	return cmd
}

func newNotifyTestCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Send a test message through every configured channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			channels := app.notifier.Channels()
			if len(channels) == 0 {
				return notify.ErrNoChannels
			}

			content := fmt.Sprintf("Test message sent %s", app.now().Format("2006-01-02 15:04:05"))
			if err := app.notifier.Push(cmd.Context(), "arc notification test", content); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Test message pushed to: %s\n", strings.Join(channels, ", "))
			return err
		},
	}
}
