package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	archive "plantpulse/internal/archive/domain"
)

// Store persists weekly archives in Postgres. The create path relies on the
// primary key for its write-once guarantee: INSERT ... ON CONFLICT DO
// NOTHING, then re-read when the insert lost the race.
type Store struct {
	db *sql.DB
}

// NewStore constructs a store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Read loads one archived week.
func (s *Store) Read(ctx context.Context, weekKey string) (*archive.WeeklyArchive, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("archive store: nil db")
	}
	if weekKey == "" {
		return nil, archive.ErrEmptyWeekKey
	}
	row := s.db.QueryRowContext(ctx, `
SELECT record
FROM weekly_archives
WHERE week_key = $1
LIMIT 1`, weekKey)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
	}
	record, err := decodeRecord(payload)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// WriteIfAbsent creates the record unless the week already has one. A lost
// race resolves by adopting the incumbent, never by error.
func (s *Store) WriteIfAbsent(ctx context.Context, weekKey string, record archive.WeeklyArchive) (archive.WeeklyArchive, bool, error) {
	if s == nil || s.db == nil {
		return archive.WeeklyArchive{}, false, errors.New("archive store: nil db")
	}
	if weekKey == "" {
		return archive.WeeklyArchive{}, false, archive.ErrEmptyWeekKey
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return archive.WeeklyArchive{}, false, err
	}

	result, err := s.db.ExecContext(ctx, `
INSERT INTO weekly_archives (week_key, period_start, period_end, tz, record, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (week_key) DO NOTHING`,
		weekKey, record.Period.Start, record.Period.End, record.Period.TZ, payload, record.SavedAt)
	if err != nil {
		return archive.WeeklyArchive{}, false, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return archive.WeeklyArchive{}, false, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
	}
	if affected == 1 {
		return record, true, nil
	}

	incumbent, err := s.Read(ctx, weekKey)
	if err != nil {
		return archive.WeeklyArchive{}, false, err
	}
	if incumbent == nil {
		// Conflict followed by absence only happens if someone deleted the
		// row out of band.
		return archive.WeeklyArchive{}, false, fmt.Errorf("%w: conflicting record vanished", archive.ErrStoreUnavailable)
	}
	return *incumbent, false, nil
}

// List returns every archived week, newest first.
func (s *Store) List(ctx context.Context) ([]archive.WeeklyArchive, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("archive store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT record
FROM weekly_archives
ORDER BY period_start DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []archive.WeeklyArchive
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
		}
		record, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrStoreUnavailable, err)
	}
	return records, nil
}

func decodeRecord(payload []byte) (archive.WeeklyArchive, error) {
	var record archive.WeeklyArchive
	if err := json.Unmarshal(payload, &record); err != nil {
		return archive.WeeklyArchive{}, fmt.Errorf("archive store: corrupt record: %w", err)
	}
	return record, nil
}
