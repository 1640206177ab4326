// Package web serves the team-facing JSON API plus a small server-rendered
// dashboard. The service is intentionally open: any caller may read or write
// any named user's week.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaz1409/work-location-tracker/config"
	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/report"
	"github.com/shaz1409/work-location-tracker/roster"
	"github.com/shaz1409/work-location-tracker/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	store  *storage.SQLiteStore
	svc    *roster.Service
	mailer report.Mailer
	cfg    config.Config
	mux    *http.ServeMux
}

type dayEntryPayload struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Client   string `json:"client,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type bulkUpsertRequest struct {
	UserName string            `json:"user_name"`
	Entries  []dayEntryPayload `json:"entries"`
}

type bulkUpsertResponse struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

type entryResponse struct {
	ID        int64  `json:"id"`
	UserName  string `json:"user_name"`
	Date      string `json:"date"`
	Location  string `json:"location"`
	Client    string `json:"client,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type weekSummaryResponse struct {
	Entries []entryResponse `json:"entries"`
}

type usersResponse struct {
	Users []string `json:"users"`
}

type checkEntriesResponse struct {
	Exists  bool              `json:"exists"`
	Count   int               `json:"count"`
	Entries []dayEntryPayload `json:"entries"`
}

type reportTriggerResponse struct {
	OK            bool     `json:"ok"`
	WeekStart     string   `json:"week_start"`
	WeekEnd       string   `json:"week_end"`
	Recipients    []string `json:"recipients"`
	UsersReported int      `json:"users_reported"`
	TotalEntries  int      `json:"total_entries"`
}

func NewServer(store *storage.SQLiteStore, mailer report.Mailer, cfg config.Config) http.Handler {
	server := &Server{
		store:  store,
		svc:    roster.NewService(store),
		mailer: mailer,
		cfg:    cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/entries/bulk_upsert", server.handleBulkUpsert)
	mux.HandleFunc("GET /api/entries", server.handleListEntries)
	mux.HandleFunc("GET /api/entries/check", server.handleCheckEntries)
	mux.HandleFunc("DELETE /api/entries/{id}", server.handleDeleteEntry)
	mux.HandleFunc("GET /api/summary/week", server.handleWeekSummary)
	mux.HandleFunc("GET /api/summary/users", server.handleWeekUsers)
	mux.HandleFunc("GET /api/summary/all-users", server.handleAllUsers)
	mux.HandleFunc("POST /api/admin/send-weekly-report", server.handleSendWeeklyReport)
	mux.HandleFunc("GET /{$}", server.handleIndex)
	mux.HandleFunc("GET /week/{week_start}", server.handleWeekPage)
	mux.HandleFunc("GET /edit/{week_start}", server.handleEditPage)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleBulkUpsert(w http.ResponseWriter, r *http.Request) {
	var body bulkUpsertRequest
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	records := make([]roster.DayRecord, 0, len(body.Entries))
	for _, item := range body.Entries {
		records = append(records, roster.DayRecord{
			Date:     item.Date,
			Location: item.Location,
			Client:   item.Client,
			Notes:    item.Notes,
		})
	}

	count, err := s.svc.SubmitWeek(r.Context(), body.UserName, records)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, bulkUpsertResponse{OK: true, Count: count})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	fromRaw := strings.TrimSpace(r.URL.Query().Get("date_from"))
	toRaw := strings.TrimSpace(r.URL.Query().Get("date_to"))

	var (
		entries []entry.Entry
		err     error
	)
	switch {
	case fromRaw == "" && toRaw == "":
		entries, err = s.svc.AllEntries(r.Context())
	default:
		from, to, parseErr := parseRange(fromRaw, toRaw)
		if parseErr != nil {
			http.Error(w, parseErr.Error(), http.StatusBadRequest)
			return
		}
		entries, err = s.svc.EntriesBetween(r.Context(), from, to)
	}
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCheckEntries(w http.ResponseWriter, r *http.Request) {
	userName := strings.TrimSpace(r.URL.Query().Get("user_name"))
	weekStart, err := parseWeekStart(r.URL.Query().Get("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.svc.WeekForUser(r.Context(), userName, weekStart)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	resp := checkEntriesResponse{
		Exists:  len(entries) > 0,
		Count:   len(entries),
		Entries: make([]dayEntryPayload, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dayEntryPayload{
			Date:     timeutil.FormatDay(e.Date),
			Location: string(e.Location),
			Client:   e.Client,
			Notes:    e.Notes,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositiveInt64(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}

	deleted, err := s.svc.DeleteEntry(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	if !deleted {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "entry deleted"})
}

func (s *Server) handleWeekSummary(w http.ResponseWriter, r *http.Request) {
	weekStart, err := parseWeekStart(r.URL.Query().Get("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.svc.WeekSummary(r.Context(), weekStart)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	resp := weekSummaryResponse{Entries: make([]entryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeekUsers(w http.ResponseWriter, r *http.Request) {
	weekStart, err := parseWeekStart(r.URL.Query().Get("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	users, err := s.svc.KnownUsersForWeek(r.Context(), weekStart)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (s *Server) handleAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.KnownUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (s *Server) handleSendWeeklyReport(w http.ResponseWriter, r *http.Request) {
	recipients := s.cfg.Report.Recipients
	if raw := strings.TrimSpace(r.URL.Query().Get("recipients")); raw != "" {
		recipients = splitRecipients(raw)
	}

	weekStart := timeutil.PreviousWeekStart(time.Now())
	if raw := strings.TrimSpace(r.URL.Query().Get("week_start")); raw != "" {
		parsed, err := parseWeekStart(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		weekStart = parsed
	}

	result, err := report.Run(r.Context(), s.store, s.mailer, recipients, weekStart)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, report.ErrNoRecipients) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("send weekly report: %v", err), status)
		return
	}

	writeJSON(w, http.StatusOK, reportTriggerResponse{
		OK:            true,
		WeekStart:     result.WeekStart,
		WeekEnd:       result.WeekEnd,
		Recipients:    result.Recipients,
		UsersReported: result.UsersReported,
		TotalEntries:  result.TotalEntries,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	currentMonday := timeutil.PreviousWeekStart(time.Now()).AddDate(0, 0, 7)
	http.Redirect(w, r, "/week/"+timeutil.FormatDay(currentMonday), http.StatusFound)
}

func (s *Server) handleWeekPage(w http.ResponseWriter, r *http.Request) {
	weekStart, err := parseWeekStart(r.PathValue("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.svc.WeekSummary(r.Context(), weekStart)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	view := BuildWeekView(weekStart, entries)
	if err := renderTemplate(w, "week.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	weekStart, err := parseWeekStart(r.PathValue("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	users, err := s.svc.KnownUsers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	view := BuildEditView(weekStart, users)
	if err := renderTemplate(w, "edit.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toEntryResponse(e entry.Entry) entryResponse {
	return entryResponse{
		ID:        e.ID,
		UserName:  e.DisplayName,
		Date:      timeutil.FormatDay(e.Date),
		Location:  string(e.Location),
		Client:    e.Client,
		Notes:     e.Notes,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}

func errorStatus(err error) int {
	var validationErr *roster.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, entry.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrInvalidEntryID):
		return http.StatusBadRequest
	case errors.Is(err, roster.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseWeekStart(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("week_start is required (YYYY-MM-DD)")
	}
	parsed, err := timeutil.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week_start %q (expected YYYY-MM-DD)", raw)
	}
	return parsed, nil
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	if fromRaw == "" || toRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("date_from and date_to must both be set")
	}
	from, err := timeutil.ParseDay(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date_from %q (expected YYYY-MM-DD)", fromRaw)
	}
	to, err := timeutil.ParseDay(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date_to %q (expected YYYY-MM-DD)", toRaw)
	}
	return from, to, nil
}

func parsePositiveInt64(value string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("value must be > 0")
	}
	return parsed, nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}
