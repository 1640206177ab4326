package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaz1409/work-location-tracker/config"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/report"
	"github.com/shaz1409/work-location-tracker/storage"
)

var (
	reportDBPath     string
	reportWeekStart  string
	reportRecipients string
	reportDryRun     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Send the weekly office attendance report by email",
	Long: `Generate the office attendance report for one business week and email it
to the configured recipients.

Without --week the report covers the previous week (Monday through Friday).
Only people with at least one office or client day appear on the report.`,
	Example: `
  # Send last week's report to the configured recipients
  worktrack report

  # Preview the report HTML without sending anything
  worktrack report --dry-run

  # Report an explicit week to explicit recipients
  worktrack report --week 2026-08-17 --recipients lead@example.com,ops@example.com
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		weekStart := timeutil.PreviousWeekStart(time.Now())
		if strings.TrimSpace(reportWeekStart) != "" {
			parsed, err := timeutil.ParseDay(reportWeekStart)
			if err != nil {
				return fmt.Errorf("invalid --week value %q (expected YYYY-MM-DD)", reportWeekStart)
			}
			weekStart = parsed
		}

		store, err := storage.OpenSQLite(reportDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if reportDryRun {
			html, err := report.Render(cmd.Context(), store, weekStart)
			if err != nil {
				return err
			}
			fmt.Println(html)
			return nil
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		recipients := cfg.Report.Recipients
		if trimmed := strings.TrimSpace(reportRecipients); trimmed != "" {
			recipients = nil
			for _, part := range strings.Split(trimmed, ",") {
				if address := strings.TrimSpace(part); address != "" {
					recipients = append(recipients, address)
				}
			}
		}

		mailer := &report.SMTPMailer{
			Host:     cfg.Report.SMTP.Host,
			Port:     cfg.Report.SMTP.Port,
			Username: cfg.Report.SMTP.Username,
			Password: cfg.Report.SMTP.Password,
			From:     cfg.Report.SMTP.From,
		}

		result, err := report.Run(cmd.Context(), store, mailer, recipients, weekStart)
		if err != nil {
			return err
		}

		fmt.Printf("Report sent. Week: %s to %s, people reported: %d, recipients: %s\n",
			result.WeekStart, result.WeekEnd, result.UsersReported, strings.Join(result.Recipients, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDBPath, "db", "./worktrack.db", "Path to SQLite database")
	reportCmd.Flags().StringVar(&reportWeekStart, "week", "", "Week start date YYYY-MM-DD (default: previous Monday)")
	reportCmd.Flags().StringVar(&reportRecipients, "recipients", "", "Comma-separated recipients (default: config report.recipients)")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "Print the report HTML instead of sending it")
}
