// Package roster is the write and read surface for weekly work-location
// submissions. It owns input validation and identity normalization; all
// persistence goes through the storage layer's transactional upsert.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shaz1409/work-location-tracker/entry"
	"github.com/shaz1409/work-location-tracker/internal/timeutil"
	"github.com/shaz1409/work-location-tracker/storage"
)

// DayRecord is one submitted day, still in wire form.
type DayRecord struct {
	Date     string
	Location string
	Client   string
	Notes    string
}

// ValidationError reports the first malformed day record in a submission.
// Nothing is written when one is returned.
type ValidationError struct {
	Index  int
	Date   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("invalid entry %d (%s): %s", e.Index, e.Date, e.Reason)
	}
	return fmt.Sprintf("invalid entry %d: %s", e.Index, e.Reason)
}

// ErrStorageUnavailable marks failures where no part of the batch was
// committed and the caller may retry the whole submission.
var ErrStorageUnavailable = errors.New("storage unavailable")

type Service struct {
	store *storage.SQLiteStore
}

func NewService(store *storage.SQLiteStore) *Service {
	return &Service{store: store}
}

// SubmitWeek reconciles a user's day records against the store: each record
// inserts a new (user_key, date) row or overwrites the existing one. Days not
// named in the submission are left untouched. The whole batch is validated
// before any write and applied in one transaction, so a failure leaves the
// store exactly as it was. Returns the number of records reconciled.
func (s *Service) SubmitWeek(ctx context.Context, displayName string, records []DayRecord) (int, error) {
	userKey, err := entry.NormalizeName(displayName)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, &ValidationError{Index: 0, Reason: "no entries provided"}
	}

	entries := make([]entry.Entry, 0, len(records))
	for i, record := range records {
		e, err := buildEntry(displayName, userKey, record)
		if err != nil {
			return 0, &ValidationError{Index: i, Date: strings.TrimSpace(record.Date), Reason: err.Error()}
		}
		entries = append(entries, e)
	}

	count, err := s.store.UpsertEntries(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return count, nil
}

func buildEntry(displayName, userKey string, record DayRecord) (entry.Entry, error) {
	date, err := timeutil.ParseDay(strings.TrimSpace(record.Date))
	if err != nil {
		return entry.Entry{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", record.Date)
	}

	location, err := entry.ParseLocation(record.Location)
	if err != nil {
		return entry.Entry{}, err
	}

	client := strings.TrimSpace(record.Client)
	if location.RequiresClientDetail() {
		if client == "" {
			return entry.Entry{}, fmt.Errorf("location %q requires a client/description", location)
		}
	} else {
		// A qualifier on a location that takes none is stale input, not data.
		client = ""
	}

	return entry.Entry{
		DisplayName: displayName,
		UserKey:     userKey,
		Date:        date,
		Location:    location,
		Client:      client,
		Notes:       strings.TrimSpace(record.Notes),
	}, nil
}

// WeekForUser returns the user's entries for the business week starting at
// weekStart, matching by normalized identity so any casing of the name finds
// the same rows.
func (s *Service) WeekForUser(ctx context.Context, displayName string, weekStart time.Time) ([]entry.Entry, error) {
	userKey, err := entry.NormalizeName(displayName)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.GetEntriesByKey(ctx, userKey, weekStart, timeutil.WeekEnd(weekStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// WeekSummary returns all users' entries for the business week starting at
// weekStart, ordered by date then display name.
func (s *Service) WeekSummary(ctx context.Context, weekStart time.Time) ([]entry.Entry, error) {
	entries, err := s.store.ListEntriesInRange(ctx, weekStart, timeutil.WeekEnd(weekStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// EntriesBetween returns all entries with from <= date <= to.
func (s *Service) EntriesBetween(ctx context.Context, from, to time.Time) ([]entry.Entry, error) {
	entries, err := s.store.ListEntriesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// AllEntries returns every stored entry.
func (s *Service) AllEntries(ctx context.Context) ([]entry.Entry, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return entries, nil
}

// KnownUsers returns every distinct person who ever submitted, one latest
// display name per identity.
func (s *Service) KnownUsers(ctx context.Context) ([]string, error) {
	names, err := s.store.ListDistinctUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return names, nil
}

// KnownUsersForWeek returns the distinct people with entries in the business
// week starting at weekStart.
func (s *Service) KnownUsersForWeek(ctx context.Context, weekStart time.Time) ([]string, error) {
	names, err := s.store.ListDistinctUsersInRange(ctx, weekStart, timeutil.WeekEnd(weekStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return names, nil
}

// DeleteEntry removes one row by id. Reports whether a row existed. A
// non-positive id is the caller's mistake, not a storage outage, and comes
// back as storage.ErrInvalidEntryID.
func (s *Service) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidEntryID) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return deleted, nil
}
