package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/roster"
	"github.com/shaz1409/work-location-tracker/storage"
)

var seedDBPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate an empty database with demo entries for the current week",
	Long: `Insert a handful of demo people and entries for the current business week.

The command refuses to touch a database that already contains entries, so it
is safe against accidental runs on real data.`,
	Example: `
  # Seed a fresh demo database
  worktrack seed --db ./demo.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.OpenSQLite(seedDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.CountEntries(cmd.Context())
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("database already contains %d entries; seed only runs on an empty database", count)
		}

		if _, err := store.Migrate(cmd.Context()); err != nil {
			return err
		}

		weekStart := timeutil.PreviousWeekStart(time.Now()).AddDate(0, 0, 7)
		days := timeutil.BusinessWeek(weekStart)
		svc := roster.NewService(store)

		seeded := 0
		for _, person := range seedPeople() {
			records := make([]roster.DayRecord, 0, len(days))
			for i, location := range person.week {
				if location == "" {
					continue
				}
				records = append(records, roster.DayRecord{
					Date:     timeutil.FormatDay(days[i]),
					Location: location,
					Client:   person.client,
				})
			}
			written, err := svc.SubmitWeek(cmd.Context(), person.name, records)
			if err != nil {
				return fmt.Errorf("seed %s: %w", person.name, err)
			}
			seeded += written
		}

		fmt.Printf("Seeded %d entries for week starting %s\n", seeded, timeutil.FormatDay(weekStart))
		return nil
	},
}

type seedPerson struct {
	name   string
	client string
	week   [5]string
}

// seedPeople deliberately mixes name casing and spacing so the demo data
// shows identity normalization in action on the dashboard.
func seedPeople() []seedPerson {
	office := string(entry.LocationOffice)
	home := string(entry.LocationHome)
	client := string(entry.LocationClient)
	holiday := string(entry.LocationHoliday)
	abroad := string(entry.LocationAbroad)

	return []seedPerson{
		{name: "Alice Chen", week: [5]string{office, office, home, office, home}},
		{name: "  bob patel ", week: [5]string{home, office, office, home, office}},
		{name: "Carla DIAZ", client: "Acme Ltd", week: [5]string{client, client, office, home, ""}},
		{name: "dan o'brien", week: [5]string{holiday, holiday, holiday, office, office}},
		{name: "Elena Sousa", week: [5]string{abroad, abroad, abroad, abroad, abroad}},
	}
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&seedDBPath, "db", "./worktrack.db", "Path to SQLite database")
}
