package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func writeAttendanceSummariesExcel(path string, summaries []AttendanceSummary) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	headers := []string{"TeamMember", "OfficeDays", "HomeDays", "HolidayDays", "AbroadDays", "OtherDays", "TotalDays"}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, summary := range summaries {
		row := i + 2
		values := []any{
			summary.DisplayName,
			summary.OfficeDays,
			summary.HomeDays,
			summary.HolidayDays,
			summary.AbroadDays,
			summary.OtherDays,
			summary.TotalDays,
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
