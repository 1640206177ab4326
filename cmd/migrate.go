package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaz1409/work-location-tracker/storage"
)

var migrateDBPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema and identity index up to date",
	Long: `Run the identity migration against the SQLite database.

The migration backfills the normalized user key for rows written before keys
existed, removes duplicate (person, day) rows keeping the most recently
updated one, and then applies the unique index that makes the
one-entry-per-person-per-day guarantee permanent.

The command is safe to re-run; an already migrated database is a no-op.`,
	Example: `
  # Migrate the default database
  worktrack migrate

  # Migrate an explicit database file
  worktrack migrate --db ./worktrack.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.OpenSQLite(migrateDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := store.Migrate(cmd.Context())
		if err != nil {
			return err
		}

		if result.AlreadyMigrated {
			fmt.Println("Database already migrated; nothing to do.")
			return nil
		}
		fmt.Printf("Migration completed. Keys backfilled: %d, timestamps repaired: %d, locations normalized: %d, duplicates removed: %d\n",
			result.KeysBackfilled, result.TimestampsRepaired, result.LocationsNormalized, result.DuplicatesRemoved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateDBPath, "db", "./worktrack.db", "Path to SQLite database")
}
