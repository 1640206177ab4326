package timeutil

import "time"

const dayLayout = "2006-01-02"

// ParseDay parses a calendar day in YYYY-MM-DD form. The result carries no
// time component and is pinned to UTC so day arithmetic is DST-safe.
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, value, time.UTC)
}

func FormatDay(value time.Time) string {
	return value.Format(dayLayout)
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// BusinessWeek returns the 5 week days starting at weekStart (Monday..Friday
// when weekStart is a Monday).
func BusinessWeek(weekStart time.Time) []time.Time {
	days := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, StartOfDay(weekStart).AddDate(0, 0, i))
	}
	return days
}

// WeekEnd returns the last business day of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return StartOfDay(weekStart).AddDate(0, 0, 4)
}

// PreviousWeekStart returns the Monday of the week before the one containing now.
func PreviousWeekStart(now time.Time) time.Time {
	day := StartOfDay(now)
	daysSinceMonday := (int(day.Weekday()) + 6) % 7
	currentMonday := day.AddDate(0, 0, -daysSinceMonday)
	return currentMonday.AddDate(0, 0, -7)
}
