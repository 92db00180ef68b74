package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "arc",
		Short:         "AnyRouter check-in (arc): daily multi-account check-in runner",
		Long:          "arc runs the AnyRouter daily check-in for every configured account: it clears the site's anti-bot challenge in a real browser, signs each account in over HTTP, verifies the credited balance, and pushes an aggregated report to your notification channels.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newCheckinCmd(app),
		newAccountsCmd(app),
		newNotifyCmd(app),
	)

	return rootCmd
}
