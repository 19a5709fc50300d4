// Package queue selects which artworks are due for review.
package queue

import (
	"sort"
	"time"

	"github.com/artloop/artloop/internal/domain"
)

// SelectDue returns the item ids due on or before asOf, most overdue first,
// truncated to limit. A limit of zero or less yields an empty queue. The same
// inputs always produce the same output.
func SelectDue(states []domain.ScheduleState, asOf time.Time, limit int) []string {
	if limit <= 0 {
		return nil
	}
	ids := SelectAllDue(states, asOf)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// SelectAllDue is SelectDue without a size bound. Ordering is ascending by
// next review date, ties broken by item id so the queue is deterministic.
func SelectAllDue(states []domain.ScheduleState, asOf time.Time) []string {
	due := make([]domain.ScheduleState, 0, len(states))
	for _, s := range states {
		if s.Due(asOf) {
			due = append(due, s)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if c := domain.CompareDates(due[i].NextReviewDate, due[j].NextReviewDate); c != 0 {
			return c < 0
		}
		return due[i].ItemID < due[j].ItemID
	})
	ids := make([]string, len(due))
	for i, s := range due {
		ids[i] = s.ItemID
	}
	return ids
}
