// Package storage persists schedule states and the review log in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artloop/artloop/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrConcurrentModification means a review write lost a race with another
// review of the same item. The caller should reload the state and retry.
var ErrConcurrentModification = errors.New("storage: schedule state modified concurrently")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// StateRecord is a stored schedule state together with its write version.
// Version is 0 only for records that do not exist yet.
type StateRecord struct {
	State   domain.ScheduleState
	Version int64
}

// FindScheduleState retrieves the stored state for an item, or nil if the
// item has never been reviewed.
func (db *DB) FindScheduleState(itemID string) (*StateRecord, error) {
	row := db.conn.QueryRow(`
		SELECT item_id, easiness_factor, interval_days, repetition_count, next_review_date, last_reviewed_at, version
		FROM schedule_states WHERE item_id = ?
	`, itemID)

	rec, err := scanStateRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // never reviewed
		}
		return nil, fmt.Errorf("failed to find schedule state for item %s: %w", itemID, err)
	}
	return rec, nil
}

// AllScheduleStates retrieves every stored schedule state.
func (db *DB) AllScheduleStates() ([]domain.ScheduleState, error) {
	rows, err := db.conn.Query(`
		SELECT item_id, easiness_factor, interval_days, repetition_count, next_review_date, last_reviewed_at, version
		FROM schedule_states
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule states: %w", err)
	}
	defer rows.Close()

	var states []domain.ScheduleState
	for rows.Next() {
		rec, err := scanStateRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule state row: %w", err)
		}
		states = append(states, rec.State)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading schedule states: %w", err)
	}
	return states, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStateRecord(row rowScanner) (*StateRecord, error) {
	var rec StateRecord
	var lastReviewed sql.NullTime
	err := row.Scan(
		&rec.State.ItemID,
		&rec.State.EasinessFactor,
		&rec.State.IntervalDays,
		&rec.State.RepetitionCount,
		&rec.State.NextReviewDate,
		&lastReviewed,
		&rec.Version,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		rec.State.LastReviewedAt = lastReviewed.Time
	}
	return &rec, nil
}

// ApplyReview commits the outcome of one review event: the new schedule state
// and its review-log entry are written in a single transaction, so either both
// land or neither does. prevVersion is the version the caller read (0 for a
// first review); a mismatch means another writer got there first and yields
// ErrConcurrentModification.
func (db *DB) ApplyReview(next domain.ScheduleState, entry domain.ReviewLogEntry, prevVersion int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if prevVersion == 0 {
		// First review: insert unless a concurrent first review beat us to it.
		res, err = tx.Exec(`
			INSERT INTO schedule_states (item_id, easiness_factor, interval_days, repetition_count, next_review_date, last_reviewed_at, version)
			SELECT ?, ?, ?, ?, ?, ?, 1
			WHERE NOT EXISTS (SELECT 1 FROM schedule_states WHERE item_id = ?)
		`,
			next.ItemID,
			next.EasinessFactor,
			next.IntervalDays,
			next.RepetitionCount,
			next.NextReviewDate,
			nullTime(next.LastReviewedAt),
			next.ItemID,
		)
	} else {
		res, err = tx.Exec(`
			UPDATE schedule_states
			SET easiness_factor = ?, interval_days = ?, repetition_count = ?, next_review_date = ?, last_reviewed_at = ?, version = version + 1
			WHERE item_id = ? AND version = ?
		`,
			next.EasinessFactor,
			next.IntervalDays,
			next.RepetitionCount,
			next.NextReviewDate,
			nullTime(next.LastReviewedAt),
			next.ItemID,
			prevVersion,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to write schedule state for item %s: %w", next.ItemID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check schedule state write for item %s: %w", next.ItemID, err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s at version %d: %w", next.ItemID, prevVersion, ErrConcurrentModification)
	}

	if _, err := tx.Exec(`
		INSERT INTO review_log (item_id, reviewed_at, rating, resulting_interval_days, resulting_easiness_factor)
		VALUES (?, ?, ?, ?, ?)
	`,
		entry.ItemID,
		entry.ReviewedAt,
		entry.Rating.String(),
		entry.ResultingIntervalDays,
		entry.ResultingEasinessFactor,
	); err != nil {
		return fmt.Errorf("failed to append review log for item %s: %w", entry.ItemID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for item %s: %w", next.ItemID, err)
	}
	return nil
}

// ReviewLogFor retrieves an item's review history, oldest first.
func (db *DB) ReviewLogFor(itemID string) ([]domain.ReviewLogEntry, error) {
	rows, err := db.conn.Query(`
		SELECT item_id, reviewed_at, rating, resulting_interval_days, resulting_easiness_factor
		FROM review_log WHERE item_id = ?
		ORDER BY reviewed_at, id
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log for item %s: %w", itemID, err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

// AllReviewLogEntries retrieves the full review log, oldest first.
func (db *DB) AllReviewLogEntries() ([]domain.ReviewLogEntry, error) {
	rows, err := db.conn.Query(`
		SELECT item_id, reviewed_at, rating, resulting_interval_days, resulting_easiness_factor
		FROM review_log
		ORDER BY reviewed_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log: %w", err)
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

func scanLogEntries(rows *sql.Rows) ([]domain.ReviewLogEntry, error) {
	var entries []domain.ReviewLogEntry
	for rows.Next() {
		var e domain.ReviewLogEntry
		var rating string
		if err := rows.Scan(&e.ItemID, &e.ReviewedAt, &rating, &e.ResultingIntervalDays, &e.ResultingEasinessFactor); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		if err := e.Rating.UnmarshalText([]byte(rating)); err != nil {
			return nil, fmt.Errorf("failed to decode rating in review log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading review log: %w", err)
	}
	return entries, nil
}

// ArtworkIDs returns the catalog's full set of item ids. The scheduler never
// reads anything else from the catalog.
func (db *DB) ArtworkIDs() ([]string, error) {
	rows, err := db.conn.Query(`SELECT id FROM artworks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan artwork id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading artwork ids: %w", err)
	}
	return ids, nil
}

// InsertArtwork registers a catalog item id. Inserting an existing id is a
// no-op; catalog content itself lives outside the scheduler.
func (db *DB) InsertArtwork(id string) error {
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO artworks (id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("failed to insert artwork %s: %w", id, err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
