// Package progress derives summary statistics from schedule states and the
// review log. Pure read-side logic; it owns no data.
package progress

import (
	"time"

	"github.com/artloop/artloop/internal/domain"
	"github.com/artloop/artloop/internal/queue"
)

// Stats computes the progress summary: the catalog size (allItemIDs is the
// catalog's full id set, passed in because the aggregator does not own it),
// the number of distinct items with at least one logged review, and the
// number of items due as of the given date.
func Stats(allItemIDs []string, states []domain.ScheduleState, log []domain.ReviewLogEntry, asOf time.Time) domain.ProgressStats {
	reviewed := make(map[string]struct{}, len(log))
	for _, e := range log {
		reviewed[e.ItemID] = struct{}{}
	}
	return domain.ProgressStats{
		TotalArtworks: len(allItemIDs),
		Reviewed:      len(reviewed),
		DueToday:      len(queue.SelectAllDue(states, asOf)),
	}
}
