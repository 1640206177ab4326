package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shaz1409/work-location-tracker/entry"
)

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	if _, err := WriterForFormat("csv"); err != nil {
		t.Fatalf("csv writer: %v", err)
	}
	if _, err := WriterForFormat(" Excel "); err != nil {
		t.Fatalf("excel writer: %v", err)
	}
	if _, err := WriterForFormat("xlsx"); err != nil {
		t.Fatalf("xlsx writer: %v", err)
	}
	if _, err := WriterForFormat("pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCSVWriter_Write(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entries.csv")
	entries := []entry.Entry{
		{
			ID:          1,
			DisplayName: "Riad",
			UserKey:     "riad",
			Date:        time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
			Location:    entry.LocationClient,
			Client:      "Acme Ltd",
			Notes:       "on site",
			CreatedAt:   time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		},
	}

	writer := &CSVWriter{}
	if err := writer.Write(path, entries); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d rows", len(rows))
	}
	if rows[1][1] != "Riad" || rows[1][3] != "2026-08-24" || rows[1][4] != "Client Office" || rows[1][5] != "Acme Ltd" {
		t.Fatalf("unexpected csv row: %v", rows[1])
	}
}

func TestExcelWriter_Write(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "entries.xlsx")
	entries := []entry.Entry{
		{
			ID:          7,
			DisplayName: "Ana",
			UserKey:     "ana",
			Date:        time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
			Location:    entry.LocationHome,
			CreatedAt:   time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		},
	}

	writer := &ExcelWriter{}
	if err := writer.Write(path, entries); err != nil {
		t.Fatalf("write excel: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open excel: %v", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	name, err := file.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if name != "Ana" {
		t.Fatalf("expected display name in B2, got %q", name)
	}
	location, err := file.GetCellValue(sheet, "E2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if location != "WFH" {
		t.Fatalf("expected location in E2, got %q", location)
	}
}

func TestWriteAttendanceSummariesCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "attendance.csv")
	summaries := []AttendanceSummary{
		{DisplayName: "Riad", OfficeDays: 3, HomeDays: 1, HolidayDays: 1, TotalDays: 5},
	}

	if err := WriteAttendanceSummaries(path, "csv", summaries); err != nil {
		t.Fatalf("write attendance csv: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus 1 row, got %d rows", len(rows))
	}
	if rows[1][0] != "Riad" || rows[1][1] != "3" || rows[1][6] != "5" {
		t.Fatalf("unexpected attendance row: %v", rows[1])
	}
}
