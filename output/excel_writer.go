package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, entries []entry.Entry) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	headers := []string{"ID", "DisplayName", "UserKey", "Date", "Location", "Client", "Notes", "CreatedAt", "UpdatedAt"}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, e := range entries {
		row := i + 2
		values := []string{
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

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
