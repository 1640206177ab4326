package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shaz1409/work-location-tracker/entry"
)

// AttendanceSummary is one person's day counts for an export window, keyed by
// normalized identity and labeled with their latest-typed display name.
type AttendanceSummary struct {
	DisplayName string
	OfficeDays  int
	HomeDays    int
	HolidayDays int
	AbroadDays  int
	OtherDays   int
	TotalDays   int
}

// BuildAttendanceSummaries aggregates entries per user_key. Office days count
// Neal Street and Client Office; home, holiday, and abroad get their own
// columns; Other is the remainder.
func BuildAttendanceSummaries(entries []entry.Entry) []AttendanceSummary {
	if len(entries) == 0 {
		return []AttendanceSummary{}
	}

	type accumulator struct {
		summary AttendanceSummary
		latest  entry.Entry
	}
	byKey := make(map[string]*accumulator)

	for _, e := range entries {
		acc, ok := byKey[e.UserKey]
		if !ok {
			acc = &accumulator{latest: e}
			byKey[e.UserKey] = acc
		}
		if newerRow(e, acc.latest) {
			acc.latest = e
		}

		acc.summary.TotalDays++
		switch {
		case e.Location.CountsAsOffice():
			acc.summary.OfficeDays++
		case e.Location == entry.LocationHome:
			acc.summary.HomeDays++
		case e.Location == entry.LocationHoliday:
			acc.summary.HolidayDays++
		case e.Location == entry.LocationAbroad:
			acc.summary.AbroadDays++
		default:
			acc.summary.OtherDays++
		}
	}

	summaries := make([]AttendanceSummary, 0, len(byKey))
	for _, acc := range byKey {
		acc.summary.DisplayName = acc.latest.DisplayName
		summaries = append(summaries, acc.summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return strings.ToLower(summaries[i].DisplayName) < strings.ToLower(summaries[j].DisplayName)
	})

	return summaries
}

func newerRow(a, b entry.Entry) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

func WriteAttendanceSummaries(path, format string, summaries []AttendanceSummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeAttendanceSummariesCSV(path, summaries)
	case "excel", "xlsx":
		return writeAttendanceSummariesExcel(path, summaries)
	default:
		return fmt.Errorf("unsupported output format for attendance summaries: %s", format)
	}
}
