package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaz1409/work-location-tracker/config"
	"github.com/shaz1409/work-location-tracker/report"
	"github.com/shaz1409/work-location-tracker/storage"
	"github.com/shaz1409/work-location-tracker/web"
)

var (
	servePort   int
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the team dashboard and JSON API server",
	Long: `Start the HTTP server with the weekly dashboard, the week-entry form,
and the JSON API used by both.

The identity migration runs before the server accepts traffic, so writes
always land on a database with the one-entry-per-person-per-day guarantee.`,
	Example: `
  # Start the server on the configured port
  worktrack serve

  # Start with an explicit port and database
  worktrack serve --port 9090 --db ./worktrack.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		dbPath := serveDBPath
		if dbPath == "" {
			dbPath = cfg.Database.Path
		}

		store, err := storage.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		migration, err := store.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		if !migration.AlreadyMigrated {
			fmt.Printf("Migration completed. Keys backfilled: %d, locations normalized: %d, duplicates removed: %d\n",
				migration.KeysBackfilled, migration.LocationsNormalized, migration.DuplicatesRemoved)
		}

		mailer := &report.SMTPMailer{
			Host:     cfg.Report.SMTP.Host,
			Port:     cfg.Report.SMTP.Port,
			Username: cfg.Report.SMTP.Username,
			Password: cfg.Report.SMTP.Password,
			From:     cfg.Report.SMTP.From,
		}

		addr := fmt.Sprintf(":%d", port)
		server := &http.Server{
			Addr:    addr,
			Handler: web.NewServer(store, mailer, *cfg),
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Listening on http://localhost:%d\n", port)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port for the web server (default: config server.port)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to SQLite database (default: config database.path)")
}
