// Package report builds and mails the weekly office-attendance summary: for
// one business week, how many days each person was in the office or at a
// client site.
package report

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/output"
	"github.com/shaz1409/work-location-tracker/storage"
)

// ErrNoRecipients means the caller asked for a mailing with nobody to mail
// to. It is a configuration problem, not a report failure.
var ErrNoRecipients = errors.New("no report recipients configured")

type Result struct {
	WeekStart     string
	WeekEnd       string
	Recipients    []string
	UsersReported int
	TotalEntries  int
}

type row struct {
	Name string
	Days int
}

type reportData struct {
	WeekStartLabel string
	WeekEndLabel   string
	Rows           []row
}

// Run generates the attendance report for the business week starting at
// weekStart and hands it to the mailer. People with no office or client days
// that week are left off the report.
func Run(ctx context.Context, store *storage.SQLiteStore, mailer Mailer, recipients []string, weekStart time.Time) (*Result, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	weekEnd := timeutil.WeekEnd(weekStart)
	entries, err := store.ListEntriesInRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("load entries for report week: %w", err)
	}

	rows := attendanceRows(entries)
	html, err := renderHTML(weekStart, weekEnd, rows)
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Weekly Office Attendance Report - %s to %s",
		weekStart.Format("January 2"), weekEnd.Format("January 2, 2006"))
	if err := mailer.Send(subject, html, recipients); err != nil {
		return nil, fmt.Errorf("send report email: %w", err)
	}

	return &Result{
		WeekStart:     timeutil.FormatDay(weekStart),
		WeekEnd:       timeutil.FormatDay(weekEnd),
		Recipients:    recipients,
		UsersReported: len(rows),
		TotalEntries:  len(entries),
	}, nil
}

// Render returns the report HTML without sending it, for dry runs.
func Render(ctx context.Context, store *storage.SQLiteStore, weekStart time.Time) (string, error) {
	weekEnd := timeutil.WeekEnd(weekStart)
	entries, err := store.ListEntriesInRange(ctx, weekStart, weekEnd)
	if err != nil {
		return "", fmt.Errorf("load entries for report week: %w", err)
	}
	return renderHTML(weekStart, weekEnd, attendanceRows(entries))
}

// attendanceRows keeps only people with at least one office or client day,
// labeled with their latest-typed display name.
func attendanceRows(entries []entry.Entry) []row {
	rows := make([]row, 0, 16)
	for _, summary := range output.BuildAttendanceSummaries(entries) {
		if summary.OfficeDays == 0 {
			continue
		}
		rows = append(rows, row{Name: summary.DisplayName, Days: summary.OfficeDays})
	}
	return rows
}

func renderHTML(weekStart, weekEnd time.Time, rows []row) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}

	data := reportData{
		WeekStartLabel: weekStart.Format("January 2, 2006"),
		WeekEndLabel:   weekEnd.Format("January 2, 2006"),
		Rows:           rows,
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return builder.String(), nil
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<style>
	body { font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px; }
	.container { max-width: 800px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 8px; }
	h1 { color: #333; border-bottom: 3px solid #000; padding-bottom: 10px; }
	h2 { color: #666; margin-top: 20px; }
	table { width: 100%; border-collapse: collapse; margin-top: 20px; }
	th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
	th { background-color: #000; color: #fff; font-weight: bold; }
	.footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
	<h1>Weekly Office Attendance Report</h1>
	<h2>Week of {{.WeekStartLabel}} to {{.WeekEndLabel}}</h2>
	<p>Days each team member was <strong>not working from home</strong> (holidays excluded).</p>
	<table>
		<thead>
			<tr><th>Team Member</th><th>Days in Office/Client Site</th></tr>
		</thead>
		<tbody>
		{{- range .Rows}}
			<tr><td>{{.Name}}</td><td><strong>{{.Days}}</strong></td></tr>
		{{- else}}
			<tr><td colspan="2">No entries found for this week</td></tr>
		{{- end}}
		</tbody>
	</table>
	<div class="footer">Generated by worktrack.</div>
</div>
</body>
</html>
`
