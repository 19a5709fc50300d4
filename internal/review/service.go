// Package review wires the scheduling algorithm to persistence: it records
// review events and answers the due-queue and progress queries the rest of
// the application needs.
package review

import (
	"fmt"
	"time"

	"github.com/artloop/artloop/internal/domain"
	"github.com/artloop/artloop/internal/progress"
	"github.com/artloop/artloop/internal/queue"
	"github.com/artloop/artloop/internal/sm2"
	"github.com/artloop/artloop/internal/storage"
)

// Catalog supplies the full set of valid artwork ids. The catalog itself is
// owned elsewhere; the scheduler never inspects artwork content.
type Catalog interface {
	ArtworkIDs() ([]string, error)
}

// Service exposes the scheduler to the rest of the application.
type Service struct {
	db      *storage.DB
	catalog Catalog
}

// NewService creates a Service backed by the given database and catalog.
func NewService(db *storage.DB, catalog Catalog) *Service {
	return &Service{db: db, catalog: catalog}
}

// RecordReview applies one review event: it computes the next schedule state
// for the item and persists it together with the review-log entry, atomically.
// A state is created lazily for items reviewed for the first time. The new
// state is returned on success.
func (s *Service) RecordReview(itemID string, rating domain.Rating, now time.Time) (domain.ScheduleState, error) {
	rec, err := s.db.FindScheduleState(itemID)
	if err != nil {
		return domain.ScheduleState{}, err
	}

	current := domain.NewScheduleState(itemID, now)
	var version int64
	if rec != nil {
		current = rec.State
		version = rec.Version
	}

	next, err := sm2.Next(current, rating, now)
	if err != nil {
		return domain.ScheduleState{}, fmt.Errorf("computing next state for item %s: %w", itemID, err)
	}

	entry := domain.ReviewLogEntry{
		ItemID:                  itemID,
		ReviewedAt:              now,
		Rating:                  rating,
		ResultingIntervalDays:   next.IntervalDays,
		ResultingEasinessFactor: next.EasinessFactor,
	}
	if err := s.db.ApplyReview(next, entry, version); err != nil {
		return domain.ScheduleState{}, err
	}
	return next, nil
}

// DueQueue returns the ids of items due on or before asOf, most overdue
// first, at most limit of them. Catalog items that were never reviewed count
// as due immediately.
func (s *Service) DueQueue(asOf time.Time, limit int) ([]string, error) {
	ids, err := s.catalog.ArtworkIDs()
	if err != nil {
		return nil, err
	}
	states, err := s.trackedStates(ids, asOf)
	if err != nil {
		return nil, err
	}
	return queue.SelectDue(states, asOf, limit), nil
}

// Progress returns the summary counts for the whole catalog as of the given
// date.
func (s *Service) Progress(asOf time.Time) (domain.ProgressStats, error) {
	ids, err := s.catalog.ArtworkIDs()
	if err != nil {
		return domain.ProgressStats{}, err
	}
	states, err := s.trackedStates(ids, asOf)
	if err != nil {
		return domain.ProgressStats{}, err
	}
	log, err := s.db.AllReviewLogEntries()
	if err != nil {
		return domain.ProgressStats{}, err
	}
	return progress.Stats(ids, states, log, asOf), nil
}

// History returns an item's review log, oldest first.
func (s *Service) History(itemID string) ([]domain.ReviewLogEntry, error) {
	return s.db.ReviewLogFor(itemID)
}

// trackedStates is the stored states plus a synthesized due-now state for
// every catalog item in ids that has never been reviewed.
func (s *Service) trackedStates(ids []string, asOf time.Time) ([]domain.ScheduleState, error) {
	states, err := s.db.AllScheduleStates()
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]struct{}, len(states))
	for _, st := range states {
		tracked[st.ItemID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := tracked[id]; !ok {
			states = append(states, domain.NewScheduleState(id, asOf))
		}
	}
	return states, nil
}
