package web

import (
	"sort"
	"strings"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
)

// WeekCell is a single day slot in the dashboard grid.
type WeekCell struct {
	Location string
	Client   string
	Filled   bool
	InOffice bool
}

// WeekRow is one person's Monday-Friday line on the dashboard.
type WeekRow struct {
	Name       string
	Cells      []WeekCell
	OfficeDays int
}

// WeekView is the data served to the dashboard template.
type WeekView struct {
	WeekStart string
	WeekEnd   string
	PrevWeek  string
	NextWeek  string
	Days      []string
	DayLabels []string
	Rows      []WeekRow
}

// EditView is the data served to the week-entry form template.
type EditView struct {
	WeekStart  string
	Days       []string
	DayLabels  []string
	Locations  []string
	KnownUsers []string
}

// BuildWeekView pivots a week's entries into one row per person with a cell
// per business day. People are keyed by their normalized identity; the
// display name shown is the one from their most recently updated entry.
func BuildWeekView(weekStart time.Time, entries []entry.Entry) WeekView {
	days := timeutil.BusinessWeek(weekStart)
	dayIndex := make(map[string]int, len(days))
	view := WeekView{
		WeekStart: timeutil.FormatDay(weekStart),
		WeekEnd:   timeutil.FormatDay(timeutil.WeekEnd(weekStart)),
		PrevWeek:  timeutil.FormatDay(weekStart.AddDate(0, 0, -7)),
		NextWeek:  timeutil.FormatDay(weekStart.AddDate(0, 0, 7)),
	}
	for i, day := range days {
		key := timeutil.FormatDay(day)
		dayIndex[key] = i
		view.Days = append(view.Days, key)
		view.DayLabels = append(view.DayLabels, day.Format("Mon 02 Jan"))
	}

	type rowState struct {
		name      string
		updatedAt time.Time
		latestID  int64
		cells     []WeekCell
	}
	rows := make(map[string]*rowState)
	for _, e := range entries {
		idx, ok := dayIndex[timeutil.FormatDay(e.Date)]
		if !ok {
			continue
		}
		row, ok := rows[e.UserKey]
		if !ok {
			row = &rowState{cells: make([]WeekCell, len(days))}
			rows[e.UserKey] = row
		}
		if row.name == "" || e.UpdatedAt.After(row.updatedAt) ||
			(e.UpdatedAt.Equal(row.updatedAt) && e.ID > row.latestID) {
			row.name = e.DisplayName
			row.updatedAt = e.UpdatedAt
			row.latestID = e.ID
		}
		row.cells[idx] = WeekCell{
			Location: string(e.Location),
			Client:   e.Client,
			Filled:   true,
			InOffice: e.Location.CountsAsOffice(),
		}
	}

	for _, row := range rows {
		out := WeekRow{Name: row.name, Cells: row.cells}
		for _, cell := range row.cells {
			if cell.InOffice {
				out.OfficeDays++
			}
		}
		view.Rows = append(view.Rows, out)
	}
	sort.Slice(view.Rows, func(i, j int) bool {
		return strings.ToLower(view.Rows[i].Name) < strings.ToLower(view.Rows[j].Name)
	})

	return view
}

// BuildEditView assembles the week-entry form: business days of the week plus
// the selectable locations and previously seen names for autocomplete.
func BuildEditView(weekStart time.Time, knownUsers []string) EditView {
	days := timeutil.BusinessWeek(weekStart)
	view := EditView{
		WeekStart:  timeutil.FormatDay(weekStart),
		KnownUsers: knownUsers,
	}
	for _, day := range days {
		view.Days = append(view.Days, timeutil.FormatDay(day))
		view.DayLabels = append(view.DayLabels, day.Format("Mon 02 Jan"))
	}
	for _, location := range entry.Locations() {
		view.Locations = append(view.Locations, string(location))
	}
	return view
}
