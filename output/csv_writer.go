package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, entries []entry.Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"ID", "DisplayName", "UserKey", "Date", "Location", "Client", "Notes", "CreatedAt", "UpdatedAt"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.DisplayName,
			e.UserKey,
			timeutil.FormatDay(e.Date),
			string(e.Location),
			e.Client,
			e.Notes,
			e.CreatedAt.Format(time.RFC3339),
			e.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
