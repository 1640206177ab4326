package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db       *sql.DB
	migrated atomic.Bool

	// now is swapped out by tests that assert timestamp behavior.
	now func() time.Time
}

var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrNotMigrated    = errors.New("store has not completed migration")
	ErrInvalidEntryID = errors.New("entry id must be > 0")
)

// timestampLayout keeps nanoseconds at a fixed width so the stored text sorts
// lexicographically in chronological order, which the ORDER BY updated_at
// queries depend on. RFC3339Nano would trim trailing zeros and break that.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	// NOTE: the unique index on (user_key, date) is deliberately absent here.
	// It is owned by the migration runner, which must deduplicate legacy rows
	// before the constraint can hold. Open is followed by Migrate before any
	// write traffic is accepted.
	const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	display_name TEXT NOT NULL,
	user_key TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	location TEXT NOT NULL,
	client TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS migration_status (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	phase TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertEntry inserts the entry, or overwrites the mutable fields of the
// existing row with the same (user_key, date). The row id and created_at
// survive updates; updated_at is set to the current time either way.
func (s *SQLiteStore) UpsertEntry(ctx context.Context, e entry.Entry) error {
	if !s.migrated.Load() {
		return ErrNotMigrated
	}

	now := s.now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx, upsertStmt,
		e.DisplayName,
		e.UserKey,
		timeutil.FormatDay(e.Date),
		string(e.Location),
		e.Client,
		e.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

const upsertStmt = `
INSERT INTO entries (display_name, user_key, date, location, client, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_key, date) DO UPDATE SET
	display_name = excluded.display_name,
	location = excluded.location,
	client = excluded.client,
	notes = excluded.notes,
	updated_at = excluded.updated_at;`

// UpsertEntries writes every entry in one transaction. Either all rows are
// reconciled or none are; the returned count equals len(entries) on success.
func (s *SQLiteStore) UpsertEntries(ctx context.Context, entries []entry.Entry) (int, error) {
	if !s.migrated.Load() {
		return 0, ErrNotMigrated
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(timestampLayout)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.DisplayName,
			e.UserKey,
			timeutil.FormatDay(e.Date),
			string(e.Location),
			e.Client,
			e.Notes,
			now,
			now,
		); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert entry for %s on %s: %w", e.UserKey, timeutil.FormatDay(e.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert transaction: %w", err)
	}

	return len(entries), nil
}

const entryColumns = `id, display_name, user_key, date, location, client, notes, created_at, updated_at`

// ListEntries returns every stored entry ordered by date, then display name.
func (s *SQLiteStore) ListEntries(ctx context.Context) ([]entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY date, display_name, id;`
	return s.queryEntries(ctx, query)
}

// ListEntriesInRange returns entries with from <= date <= to, ordered by
// date, then display name.
func (s *SQLiteStore) ListEntriesInRange(ctx context.Context, from, to time.Time) ([]entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE date >= ? AND date <= ? ORDER BY date, display_name, id;`
	return s.queryEntries(ctx, query, timeutil.FormatDay(from), timeutil.FormatDay(to))
}

// GetEntriesByKey returns one user's entries in the date range, ordered by date.
func (s *SQLiteStore) GetEntriesByKey(ctx context.Context, userKey string, from, to time.Time) ([]entry.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_key = ? AND date >= ? AND date <= ? ORDER BY date;`
	return s.queryEntries(ctx, query, userKey, timeutil.FormatDay(from), timeutil.FormatDay(to))
}

// GetEntryByKeyAndDate returns the single entry for the (user_key, date) pair.
func (s *SQLiteStore) GetEntryByKeyAndDate(ctx context.Context, userKey string, date time.Time) (entry.Entry, bool, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_key = ? AND date = ? ORDER BY updated_at DESC, id DESC LIMIT 1;`
	entries, err := s.queryEntries(ctx, query, userKey, timeutil.FormatDay(date))
	if err != nil {
		return entry.Entry{}, false, err
	}
	if len(entries) == 0 {
		return entry.Entry{}, false, nil
	}
	return entries[0], true, nil
}

// ListDistinctUsers returns one display name per user key, taken from the
// most recently updated row so the roster shows each person's latest-typed
// capitalization. Names are ordered case-insensitively.
func (s *SQLiteStore) ListDistinctUsers(ctx context.Context) ([]string, error) {
	const query = `
SELECT display_name FROM (
	SELECT display_name,
		ROW_NUMBER() OVER (PARTITION BY user_key ORDER BY updated_at DESC, id DESC) AS rn
	FROM entries
) WHERE rn = 1
ORDER BY lower(display_name);`
	return s.queryNames(ctx, query)
}

// ListDistinctUsersInRange is ListDistinctUsers scoped to entries whose date
// falls inside the range.
func (s *SQLiteStore) ListDistinctUsersInRange(ctx context.Context, from, to time.Time) ([]string, error) {
	const query = `
SELECT display_name FROM (
	SELECT display_name,
		ROW_NUMBER() OVER (PARTITION BY user_key ORDER BY updated_at DESC, id DESC) AS rn
	FROM entries
	WHERE date >= ? AND date <= ?
) WHERE rn = 1
ORDER BY lower(display_name);`
	return s.queryNames(ctx, query, timeutil.FormatDay(from), timeutil.FormatDay(to))
}

// DeleteEntry removes the row with the given ID.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, ErrInvalidEntryID
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read deleted row count: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountEntries returns the total number of stored entries.
func (s *SQLiteStore) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]entry.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := make([]entry.Entry, 0, 64)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

func (s *SQLiteStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query distinct users: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0, 16)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan display name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct users: %w", err)
	}

	return names, nil
}

func scanEntry(rows *sql.Rows) (entry.Entry, error) {
	var (
		e          entry.Entry
		dateRaw    string
		location   string
		createdRaw string
		updatedRaw string
	)

	if err := rows.Scan(
		&e.ID,
		&e.DisplayName,
		&e.UserKey,
		&dateRaw,
		&location,
		&e.Client,
		&e.Notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return entry.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Location = entry.Location(location)

	var err error
	e.Date, err = timeutil.ParseDay(dateRaw)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("parse entry date %q: %w", dateRaw, err)
	}
	e.CreatedAt, err = parseTimestamp(createdRaw)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	if updatedRaw != "" {
		e.UpdatedAt, err = parseTimestamp(updatedRaw)
		if err != nil {
			return entry.Entry{}, fmt.Errorf("parse updated_at %q: %w", updatedRaw, err)
		}
	}

	return e, nil
}

// parseTimestamp accepts any RFC 3339 precision so rows written before the
// fixed-width layout still scan.
func parseTimestamp(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
