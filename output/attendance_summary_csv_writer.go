package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

func writeAttendanceSummariesCSV(path string, summaries []AttendanceSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"TeamMember", "OfficeDays", "HomeDays", "HolidayDays", "AbroadDays", "OtherDays", "TotalDays"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, summary := range summaries {
		row := []string{
			summary.DisplayName,
			strconv.Itoa(summary.OfficeDays),
			strconv.Itoa(summary.HomeDays),
			strconv.Itoa(summary.HolidayDays),
			strconv.Itoa(summary.AbroadDays),
			strconv.Itoa(summary.OtherDays),
			strconv.Itoa(summary.TotalDays),
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
