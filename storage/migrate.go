package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
)

// MigrationPhase is the persisted progress marker of the one-shot schema
// upgrade. Phases always advance in declaration order; Failed is terminal for
// the run but not for the dataset (a later run starts over from the marker).
type MigrationPhase string

const (
	PhaseNotStarted           MigrationPhase = "not_started"
	PhaseBackfillingKeys      MigrationPhase = "backfilling_keys"
	PhaseNormalizingLocations MigrationPhase = "normalizing_locations"
	PhaseDeduplicating        MigrationPhase = "deduplicating"
	PhaseConstraintApplied    MigrationPhase = "constraint_applied"
	PhaseDone                 MigrationPhase = "done"
	PhaseFailed               MigrationPhase = "failed"
)

const uniqueIndexName = "uniq_entries_userkey_date"

var ErrMigrationFailed = errors.New("migration failed")

type MigrationResult struct {
	KeysBackfilled      int
	TimestampsRepaired  int
	LocationsNormalized int
	DuplicatesRemoved   int
	AlreadyMigrated     bool
}

// Migrate upgrades a legacy dataset (rows without user_key or updated_at,
// possibly with several rows per person and day) into one that satisfies the
// (user_key, date) uniqueness invariant, then enables writes. It must finish
// before the store accepts any upsert; re-running against a migrated store is
// a no-op.
func (s *SQLiteStore) Migrate(ctx context.Context) (*MigrationResult, error) {
	phase, err := s.migrationPhase(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	if phase == PhaseDone {
		hasIndex, err := s.hasUniqueIndex(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
		if hasIndex {
			s.migrated.Store(true)
			return &MigrationResult{AlreadyMigrated: true}, nil
		}
		// Marker says done but the constraint is gone; fall through and
		// re-run rather than serve against an unconstrained store.
	}

	result := &MigrationResult{}

	if err := s.runPhase(ctx, PhaseBackfillingKeys, func() error {
		return s.backfillKeys(ctx, result)
	}); err != nil {
		return nil, err
	}

	if err := s.runPhase(ctx, PhaseNormalizingLocations, func() error {
		return s.normalizeLocations(ctx, result)
	}); err != nil {
		return nil, err
	}

	if err := s.runPhase(ctx, PhaseDeduplicating, func() error {
		return s.deduplicate(ctx, result)
	}); err != nil {
		return nil, err
	}

	if err := s.runPhase(ctx, PhaseConstraintApplied, func() error {
		return s.applyConstraint(ctx)
	}); err != nil {
		return nil, err
	}

	if err := s.setMigrationPhase(ctx, PhaseDone); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	s.migrated.Store(true)
	return result, nil
}

func (s *SQLiteStore) runPhase(ctx context.Context, phase MigrationPhase, step func() error) error {
	if err := s.setMigrationPhase(ctx, phase); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}
	if err := step(); err != nil {
		_ = s.setMigrationPhase(ctx, PhaseFailed)
		return fmt.Errorf("%w: phase %s: %w", ErrMigrationFailed, phase, err)
	}
	return nil
}

// backfillKeys adds the user_key and updated_at columns when an old database
// predates them, then fills user_key from display_name and updated_at from
// created_at. Key computation goes through entry.NormalizeName so backfilled
// identities match what the write path would produce.
func (s *SQLiteStore) backfillKeys(ctx context.Context, result *MigrationResult) error {
	if err := s.ensureColumn(ctx, "user_key", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}
	if err := s.ensureColumn(ctx, "updated_at", `TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin backfill transaction: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, display_name FROM entries WHERE user_key = '';`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("query rows missing user_key: %w", err)
	}

	type keyFix struct {
		id  int64
		key string
	}
	fixes := make([]keyFix, 0, 64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("scan row missing user_key: %w", err)
		}
		key, err := entry.NormalizeName(name)
		if err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("row %d has unusable display name %q: %w", id, name, err)
		}
		fixes = append(fixes, keyFix{id: id, key: key})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return fmt.Errorf("iterate rows missing user_key: %w", err)
	}
	rows.Close()

	for _, fix := range fixes {
		if _, err := tx.ExecContext(ctx, `UPDATE entries SET user_key = ? WHERE id = ?;`, fix.key, fix.id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("backfill user_key for row %d: %w", fix.id, err)
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE entries SET updated_at = created_at WHERE updated_at = '';`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("backfill updated_at: %w", err)
	}
	repaired, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read backfilled row count: %w", err)
	}

	if err := padTimestamps(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit backfill transaction: %w", err)
	}

	result.KeysBackfilled = len(fixes)
	result.TimestampsRepaired = int(repaired)
	return nil
}

// padTimestamps rewrites created_at and updated_at into the store's
// fixed-width layout. Legacy rows carry timestamps with variable fractional
// precision, and those do not sort lexicographically in time order, which the
// ORDER BY updated_at queries rely on.
func padTimestamps(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, created_at, updated_at FROM entries;`)
	if err != nil {
		return fmt.Errorf("query timestamps: %w", err)
	}

	type tsFix struct {
		id                 int64
		createdAt, updated string
	}
	fixes := make([]tsFix, 0, 64)
	for rows.Next() {
		var (
			id                     int64
			createdRaw, updatedRaw string
		)
		if err := rows.Scan(&id, &createdRaw, &updatedRaw); err != nil {
			rows.Close()
			return fmt.Errorf("scan timestamps: %w", err)
		}
		createdAt, err := parseTimestamp(createdRaw)
		if err != nil {
			rows.Close()
			return fmt.Errorf("row %d has unparseable created_at %q: %w", id, createdRaw, err)
		}
		updatedAt, err := parseTimestamp(updatedRaw)
		if err != nil {
			rows.Close()
			return fmt.Errorf("row %d has unparseable updated_at %q: %w", id, updatedRaw, err)
		}
		created := createdAt.UTC().Format(timestampLayout)
		updated := updatedAt.UTC().Format(timestampLayout)
		if created != createdRaw || updated != updatedRaw {
			fixes = append(fixes, tsFix{id: id, createdAt: created, updated: updated})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate timestamps: %w", err)
	}
	rows.Close()

	for _, fix := range fixes {
		if _, err := tx.ExecContext(ctx,
			`UPDATE entries SET created_at = ?, updated_at = ? WHERE id = ?;`,
			fix.createdAt, fix.updated, fix.id,
		); err != nil {
			return fmt.Errorf("rewrite timestamps for row %d: %w", fix.id, err)
		}
	}
	return nil
}

// normalizeLocations rewrites stored location names from the retired
// vocabulary ("Office", "Client", "Off", "PTO") to the current one, so
// attendance counting and the week grid see a single set of names. A stored
// location that maps to nothing fails the run rather than surviving as a
// value no reader understands.
func (s *SQLiteStore) normalizeLocations(ctx context.Context, result *MigrationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin location normalization transaction: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT location FROM entries;`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("query distinct locations: %w", err)
	}

	type rename struct {
		from, to string
	}
	renames := make([]rename, 0, 4)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("scan stored location: %w", err)
		}
		loc, err := entry.ParseLocation(raw)
		if err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("stored location %q is not recognized: %w", raw, err)
		}
		if string(loc) != raw {
			renames = append(renames, rename{from: raw, to: string(loc)})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return fmt.Errorf("iterate stored locations: %w", err)
	}
	rows.Close()

	normalized := 0
	for _, r := range renames {
		res, err := tx.ExecContext(ctx, `UPDATE entries SET location = ? WHERE location = ?;`, r.to, r.from)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("rewrite location %q to %q: %w", r.from, r.to, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("read rewritten row count: %w", err)
		}
		normalized += int(n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit location normalization transaction: %w", err)
	}

	result.LocationsNormalized = normalized
	return nil
}

// deduplicate keeps exactly one row per (user_key, date). The survivor is the
// row with the latest updated_at; ties go to the highest id. Losing rows are
// dropped whole, never merged, matching last-writer-wins upsert semantics.
func (s *SQLiteStore) deduplicate(ctx context.Context, result *MigrationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dedup transaction: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id, user_key, date, updated_at FROM entries;`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("query entries for dedup: %w", err)
	}

	type candidate struct {
		id        int64
		updatedAt time.Time
	}
	groups := make(map[string][]candidate)
	for rows.Next() {
		var (
			id         int64
			userKey    string
			date       string
			updatedRaw string
		)
		if err := rows.Scan(&id, &userKey, &date, &updatedRaw); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("scan entry for dedup: %w", err)
		}
		updatedAt, err := parseTimestamp(updatedRaw)
		if err != nil {
			rows.Close()
			_ = tx.Rollback()
			return fmt.Errorf("row %d has unparseable updated_at %q: %w", id, updatedRaw, err)
		}
		groupKey := userKey + "\x00" + date
		groups[groupKey] = append(groups[groupKey], candidate{id: id, updatedAt: updatedAt})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return fmt.Errorf("iterate entries for dedup: %w", err)
	}
	rows.Close()

	losers := make([]int64, 0, 16)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if !group[i].updatedAt.Equal(group[j].updatedAt) {
				return group[i].updatedAt.After(group[j].updatedAt)
			}
			return group[i].id > group[j].id
		})
		for _, loser := range group[1:] {
			losers = append(losers, loser.id)
		}
	}

	for _, id := range losers {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?;`, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete duplicate row %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dedup transaction: %w", err)
	}

	result.DuplicatesRemoved = len(losers)
	return nil
}

// applyConstraint adds the unique index enforcing one row per (user_key,
// date). It verifies the dedup pass actually converged first: creating the
// index over a still-duplicated table must fail loudly, not get skipped.
func (s *SQLiteStore) applyConstraint(ctx context.Context) error {
	var (
		userKey string
		date    string
		count   int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_key, date, COUNT(*)
FROM entries
GROUP BY user_key, date
HAVING COUNT(*) > 1
LIMIT 1;`).Scan(&userKey, &date, &count)
	switch {
	case err == nil:
		return fmt.Errorf("duplicate rows remain for %q on %s (%d rows)", userKey, date, count)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("verify dedup convergence: %w", err)
	}

	stmt := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON entries (user_key, date);`, uniqueIndexName)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create unique index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ensureColumn(ctx context.Context, name, definition string) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(entries);`)
	if err != nil {
		return fmt.Errorf("query table info: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		if strings.EqualFold(colName, name) {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	if found {
		return nil
	}

	stmt := fmt.Sprintf(`ALTER TABLE entries ADD COLUMN %s %s;`, name, definition)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add %s column: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) hasUniqueIndex(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?;`, uniqueIndexName,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query unique index: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) migrationPhase(ctx context.Context) (MigrationPhase, error) {
	var phase string
	err := s.db.QueryRowContext(ctx, `SELECT phase FROM migration_status WHERE id = 1;`).Scan(&phase)
	if errors.Is(err, sql.ErrNoRows) {
		return PhaseNotStarted, nil
	}
	if err != nil {
		return "", fmt.Errorf("query migration phase: %w", err)
	}
	return MigrationPhase(phase), nil
}

func (s *SQLiteStore) setMigrationPhase(ctx context.Context, phase MigrationPhase) error {
	now := s.now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO migration_status (id, phase, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET phase = excluded.phase, updated_at = excluded.updated_at;`, string(phase), now)
	if err != nil {
		return fmt.Errorf("record migration phase %s: %w", phase, err)
	}
	return nil
}
