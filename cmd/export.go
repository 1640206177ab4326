package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/output"
	"github.com/shaz1409/work-location-tracker/storage"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportDBPath string
	exportFrom   string
	exportTo     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries from SQLite to CSV/Excel",
	Long: `Export work location entries from SQLite.

Modes:
- raw: export each entry row
- attendance: export per-person attendance counts (office, home, holiday, abroad, other)

Output format can be selected explicitly via --format or inferred from --output extension.
--from/--to restrict the export to a date range (inclusive, YYYY-MM-DD).`,
	Example: `
  # Export raw rows to CSV
  worktrack export --mode raw --db ./worktrack.db --output ./entries.csv

  # Export raw rows to Excel
  worktrack export --mode raw --db ./worktrack.db --output ./entries.xlsx

  # Export August's attendance summary to CSV
  worktrack export --mode attendance --from 2026-08-01 --to 2026-08-31 --output ./attendance.csv

  # Force Excel format independent of extension
  worktrack export --mode attendance --format excel --output ./attendance.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.OpenSQLite(exportDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := loadExportEntries(cmd, store)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, entries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(entries), format, exportOutput)
		case "attendance":
			summaries := output.BuildAttendanceSummaries(entries)
			if err := output.WriteAttendanceSummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. People: %d, Mode: attendance, Format: %s, File: %s\n", len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, attendance)", exportMode)
		}
		return nil
	},
}

func loadExportEntries(cmd *cobra.Command, store *storage.SQLiteStore) ([]entry.Entry, error) {
	fromRaw := strings.TrimSpace(exportFrom)
	toRaw := strings.TrimSpace(exportTo)
	if fromRaw == "" && toRaw == "" {
		return store.ListEntries(cmd.Context())
	}
	if fromRaw == "" || toRaw == "" {
		return nil, fmt.Errorf("--from and --to must be set together")
	}

	from, err := timeutil.ParseDay(fromRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid --from value %q (expected YYYY-MM-DD)", exportFrom)
	}
	to, err := timeutil.ParseDay(toRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid --to value %q (expected YYYY-MM-DD)", exportTo)
	}
	if from.After(to) {
		return nil, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return store.ListEntriesInRange(cmd.Context(), from, to)
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|attendance")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "./worktrack.db", "Path to SQLite database")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Range start date YYYY-MM-DD (inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Range end date YYYY-MM-DD (inclusive)")

	_ = exportCmd.MarkFlagRequired("output")
}
