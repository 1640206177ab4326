package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
)

func openUnmigrated(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "worktrack_test.db")
	store, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// insertLegacyRow writes a row the way releases before identity keys did:
// no user_key, no updated_at.
func insertLegacyRow(t *testing.T, store *SQLiteStore, name, day, location, createdAt string) int64 {
	t.Helper()

	res, err := store.db.Exec(
		`INSERT INTO entries (display_name, date, location, created_at) VALUES (?, ?, ?, ?);`,
		name, day, location, createdAt,
	)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("read legacy row id: %v", err)
	}
	return id
}

func rfc3339(t *testing.T, value string) string {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed.UTC().Format(time.RFC3339Nano)
}

func TestMigrate_FreshDatabase(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.AlreadyMigrated {
		t.Fatal("fresh database should not report already migrated")
	}
	if result.KeysBackfilled != 0 || result.DuplicatesRemoved != 0 {
		t.Fatalf("fresh database should have nothing to fix, got %+v", result)
	}

	hasIndex, err := store.hasUniqueIndex(ctx)
	if err != nil {
		t.Fatalf("check unique index: %v", err)
	}
	if !hasIndex {
		t.Fatal("expected unique index after migration")
	}

	if err := store.UpsertEntry(ctx, testEntry(t, "Riad", "2026-08-24", "WFH")); err != nil {
		t.Fatalf("expected writes enabled after migration, got %v", err)
	}
}

func TestMigrate_BackfillsKeysAndDeduplicates(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	// Three spellings of the same person on the same day, plus one clean row.
	insertLegacyRow(t, store, "Riad", "2026-08-24", "Neal Street", rfc3339(t, "2026-08-24T08:00:00Z"))
	insertLegacyRow(t, store, "riad", "2026-08-24", "WFH", rfc3339(t, "2026-08-24T10:00:00Z"))
	insertLegacyRow(t, store, " RIAD ", "2026-08-24", "Holiday", rfc3339(t, "2026-08-24T09:00:00Z"))
	insertLegacyRow(t, store, "Ana", "2026-08-24", "WFH", rfc3339(t, "2026-08-24T08:30:00Z"))

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.KeysBackfilled != 4 {
		t.Fatalf("expected 4 backfilled keys, got %d", result.KeysBackfilled)
	}
	if result.TimestampsRepaired != 4 {
		t.Fatalf("expected 4 repaired timestamps, got %d", result.TimestampsRepaired)
	}
	if result.DuplicatesRemoved != 2 {
		t.Fatalf("expected 2 duplicates removed, got %d", result.DuplicatesRemoved)
	}

	count, err := store.CountEntries(ctx)
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows after dedup, got %d", count)
	}

	// Survivor is the most recently updated row (inherited from created_at).
	survivor, found, err := store.GetEntryByKeyAndDate(ctx, "riad", mustDay(t, "2026-08-24"))
	if err != nil || !found {
		t.Fatalf("get survivor: found=%t err=%v", found, err)
	}
	if survivor.Location != entry.LocationHome {
		t.Fatalf("expected latest row (WFH) to survive, got %q", survivor.Location)
	}
	if survivor.DisplayName != "riad" {
		t.Fatalf("expected survivor display name %q, got %q", "riad", survivor.DisplayName)
	}
}

func TestMigrate_DedupTieBreaksOnHighestID(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	same := rfc3339(t, "2026-08-24T09:00:00Z")
	insertLegacyRow(t, store, "Riad", "2026-08-24", "Neal Street", same)
	laterID := insertLegacyRow(t, store, "Riad", "2026-08-24", "WFH", same)

	if _, err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	survivor, found, err := store.GetEntryByKeyAndDate(ctx, "riad", mustDay(t, "2026-08-24"))
	if err != nil || !found {
		t.Fatalf("get survivor: found=%t err=%v", found, err)
	}
	if survivor.ID != laterID {
		t.Fatalf("expected highest id %d to win the tie, got %d", laterID, survivor.ID)
	}
}

func TestMigrate_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	insertLegacyRow(t, store, "Riad", "2026-08-24", "WFH", rfc3339(t, "2026-08-24T09:00:00Z"))

	if _, err := store.Migrate(ctx); err != nil {
		t.Fatalf("first migrate: %v", err)
	}

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !result.AlreadyMigrated {
		t.Fatal("expected second run to be a no-op")
	}
}

func TestMigrate_ReappliesMissingIndex(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	if _, err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := store.db.Exec(`DROP INDEX ` + uniqueIndexName + `;`); err != nil {
		t.Fatalf("drop index: %v", err)
	}

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	if result.AlreadyMigrated {
		t.Fatal("expected full re-run when index is missing despite done marker")
	}

	hasIndex, err := store.hasUniqueIndex(ctx)
	if err != nil {
		t.Fatalf("check unique index: %v", err)
	}
	if !hasIndex {
		t.Fatal("expected unique index to be restored")
	}
}

func TestMigrate_UnusableNameFailsLoudly(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	insertLegacyRow(t, store, "   ", "2026-08-24", "WFH", rfc3339(t, "2026-08-24T09:00:00Z"))

	_, err := store.Migrate(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	phase, phaseErr := store.migrationPhase(ctx)
	if phaseErr != nil {
		t.Fatalf("read migration phase: %v", phaseErr)
	}
	if phase != PhaseFailed {
		t.Fatalf("expected phase %q after failure, got %q", PhaseFailed, phase)
	}

	// Writes stay rejected until a migration run succeeds.
	if err := store.UpsertEntry(ctx, testEntry(t, "Riad", "2026-08-24", "WFH")); !errors.Is(err, ErrNotMigrated) {
		t.Fatalf("expected ErrNotMigrated after failed migration, got %v", err)
	}
}

func TestMigrate_ResumesAfterFailure(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	badID := insertLegacyRow(t, store, "   ", "2026-08-24", "WFH", rfc3339(t, "2026-08-24T09:00:00Z"))
	insertLegacyRow(t, store, "Riad", "2026-08-24", "Neal Street", rfc3339(t, "2026-08-24T09:00:00Z"))

	if _, err := store.Migrate(ctx); !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected first run to fail, got %v", err)
	}

	// Operator fixes the offending row, then re-runs.
	if _, err := store.db.Exec(`UPDATE entries SET display_name = 'Recovered Name' WHERE id = ?;`, badID); err != nil {
		t.Fatalf("repair bad row: %v", err)
	}

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("re-run after repair: %v", err)
	}
	if result.KeysBackfilled != 2 {
		t.Fatalf("expected 2 backfilled keys on re-run, got %d", result.KeysBackfilled)
	}

	if err := store.UpsertEntry(ctx, testEntry(t, "Riad", "2026-08-25", "WFH")); err != nil {
		t.Fatalf("expected writes enabled after recovery, got %v", err)
	}
}

func TestMigrate_RewritesLegacyLocationNames(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	// Vocabulary used before the location names were renamed.
	insertLegacyRow(t, store, "Riad", "2026-08-24", "Office", rfc3339(t, "2026-08-24T09:00:00Z"))
	insertLegacyRow(t, store, "Riad", "2026-08-25", "Client", rfc3339(t, "2026-08-25T09:00:00Z"))
	insertLegacyRow(t, store, "Riad", "2026-08-26", "Off", rfc3339(t, "2026-08-26T09:00:00Z"))
	insertLegacyRow(t, store, "Riad", "2026-08-27", "PTO", rfc3339(t, "2026-08-27T09:00:00Z"))
	insertLegacyRow(t, store, "Riad", "2026-08-28", "WFH", rfc3339(t, "2026-08-28T09:00:00Z"))

	result, err := store.Migrate(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result.LocationsNormalized != 4 {
		t.Fatalf("expected 4 normalized locations, got %d", result.LocationsNormalized)
	}

	want := map[string]entry.Location{
		"2026-08-24": entry.LocationOffice,
		"2026-08-25": entry.LocationClient,
		"2026-08-26": entry.LocationHoliday,
		"2026-08-27": entry.LocationHoliday,
		"2026-08-28": entry.LocationHome,
	}
	for day, wantLoc := range want {
		got, found, err := store.GetEntryByKeyAndDate(ctx, "riad", mustDay(t, day))
		if err != nil || !found {
			t.Fatalf("get entry for %s: found=%t err=%v", day, found, err)
		}
		if got.Location != wantLoc {
			t.Fatalf("day %s: expected location %q, got %q", day, wantLoc, got.Location)
		}
	}

	// Office and client days must count toward attendance again.
	office, _, err := store.GetEntryByKeyAndDate(ctx, "riad", mustDay(t, "2026-08-24"))
	if err != nil {
		t.Fatalf("get office entry: %v", err)
	}
	if !office.Location.CountsAsOffice() {
		t.Fatalf("migrated %q row should count as office", office.Location)
	}
}

func TestMigrate_UnknownStoredLocationFailsLoudly(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	insertLegacyRow(t, store, "Riad", "2026-08-24", "Desk 42", rfc3339(t, "2026-08-24T09:00:00Z"))

	_, err := store.Migrate(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	phase, phaseErr := store.migrationPhase(ctx)
	if phaseErr != nil {
		t.Fatalf("read migration phase: %v", phaseErr)
	}
	if phase != PhaseFailed {
		t.Fatalf("expected phase %q after failure, got %q", PhaseFailed, phase)
	}
}

func TestMigrate_PadsTimestampsForTextOrdering(t *testing.T) {
	t.Parallel()

	store := openUnmigrated(t)
	ctx := context.Background()

	// Trimmed nanoseconds make "09:00:00Z" sort after "09:00:00.5Z" as text,
	// even though it is the earlier instant. Both spellings share one key, so
	// the display name must come from the fractional (later) row.
	earlierID := insertLegacyRow(t, store, "RIAD", "2026-08-24", "WFH", "2026-08-24T09:00:00Z")
	insertLegacyRow(t, store, "riad", "2026-08-25", "WFH", "2026-08-24T09:00:00.5Z")

	if _, err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var updatedAt string
	if err := store.db.QueryRow(`SELECT updated_at FROM entries WHERE id = ?;`, earlierID).Scan(&updatedAt); err != nil {
		t.Fatalf("read rewritten timestamp: %v", err)
	}
	if updatedAt != "2026-08-24T09:00:00.000000000Z" {
		t.Fatalf("expected fixed-width timestamp, got %q", updatedAt)
	}

	users, err := store.ListDistinctUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0] != "riad" {
		t.Fatalf("expected latest spelling %q, got %v", "riad", users)
	}
}
