package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

func newAccountsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage check-in accounts",
	}

	cmd.AddCommand(
		newAccountsListCmd(app),
		newAccountsAddCmd(app),
	)

	return cmd
}

func newAccountsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.source.Load(cmd.Context())
			if err != nil {
				return err
			}

			for i, account := range accounts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%d cookies\n",
					i+1, account.Label(i), domain.MaskSensitive(account.APIUser, 4), len(account.Cookies))
			}

			return nil
		},
	}
}

func newAccountsAddCmd(app *app) *cobra.Command {
	var (
		name    string
		apiUser string
		cookies string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update an account in the accounts file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			account := domain.Account{
				Name:    name,
				APIUser: apiUser,
				Cookies: domain.ParseCookieString(cookies),
			}
			if err := account.Validate(); err != nil {
				return err
			}

			if err := app.repo.Save(cmd.Context(), account); err != nil {
				return err
			}

			label := account.Name
			if label == "" {
				label = domain.MaskSensitive(account.APIUser, 4)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved account %s to %s\n", label, app.repo.Path())
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the account")
	cmd.Flags().StringVar(&apiUser, "api-user", "", "Account identifier sent with every API request")
	cmd.Flags().StringVar(&cookies, "cookies", "", "Session cookies as a \"k=v; k2=v2\" string")
	_ = cmd.MarkFlagRequired("api-user")
	_ = cmd.MarkFlagRequired("cookies")

	return cmd
}
