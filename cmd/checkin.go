package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/qirune/anyrouter-checkin/internal/adapters/anyrouter"
	"github.com/qirune/anyrouter-checkin/internal/adapters/browser"
	"github.com/qirune/anyrouter-checkin/internal/application"
)

// errCheckinFailed drives the process exit code when not a single account
// was checked in or skipped.
var errCheckinFailed = errors.New("check-in failed for every account")

func newCheckinCmd(app *app) *cobra.Command {
	var (
		maxConcurrent int
		headless      bool
		skipNotify    bool
	)

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Run the daily check-in for every configured account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.cfg
			cfg.MaxConcurrent = maxConcurrent
			cfg.Headless = headless
			cfg.SkipNotify = skipNotify

			gateway, err := anyrouter.NewGateway(cfg)
			if err != nil {
				return fmt.Errorf("wire check-in gateway: %w", err)
			}

			service := application.NewCheckinService(application.Deps{
				Accounts: app.source,
				Launcher: browser.NewChromeLauncher(cfg, app.logger),
				Gateway:  gateway,
				Notifier: app.notifier,
				Config:   cfg,
				Logger:   app.logger,
			})

			report, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), renderReport(report)); err != nil {
				return err
			}
			if report.ExitCode() != 0 {
				return errCheckinFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", app.cfg.MaxConcurrent, "Maximum concurrent account check-ins (0 = one per account)")
	cmd.Flags().BoolVar(&headless, "headless", app.cfg.Headless, "Run the browser headless")
	cmd.Flags().BoolVar(&skipNotify, "skip-notify", false, "Skip pushing the report to notification channels")

	return cmd
}

var (
	statusGood    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusPartial = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	statusBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderReport colors the overall status line for the terminal; everything
// else is exactly what the notification channels receive.
func renderReport(report *application.Report) string {
	status := report.Summary.StatusLine()
	styled := statusStyle(report.Summary).Render(status)
	return strings.Replace(report.Body(), status, styled, 1)
}

func statusStyle(summary application.Summary) lipgloss.Style {
	switch {
	case summary.Failed == 0 && summary.Succeeded+summary.Skipped > 0:
		return statusGood
	case summary.Succeeded+summary.Skipped > 0:
		return statusPartial
	default:
		return statusBad
	}
}
