package domain

import (
	"cmp"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultEasinessFactor is the SM-2 starting easiness for a never-reviewed item.
const DefaultEasinessFactor = 2.5

// MinEasinessFactor is the floor below which easiness is never allowed to drop.
const MinEasinessFactor = 1.3

var validate = validator.New(validator.WithRequiredStructEnabled())

// ScheduleState holds the per-artwork scheduling parameters. The item id is
// owned by the catalog; the scheduler only references it.
type ScheduleState struct {
	ItemID          string    `json:"itemId" validate:"required"`
	EasinessFactor  float64   `json:"easinessFactor" validate:"gte=1.3"`
	IntervalDays    int       `json:"intervalDays" validate:"gte=0"`
	RepetitionCount int       `json:"repetitionCount" validate:"gte=0"`
	NextReviewDate  time.Time `json:"nextReviewDate"`
	LastReviewedAt  time.Time `json:"lastReviewedAt,omitzero"` // zero until first review
}

// NewScheduleState returns the default state for a never-reviewed item: due
// immediately, easiness 2.5, no accumulated repetitions.
func NewScheduleState(itemID string, createdAt time.Time) ScheduleState {
	return ScheduleState{
		ItemID:          itemID,
		EasinessFactor:  DefaultEasinessFactor,
		IntervalDays:    0,
		RepetitionCount: 0,
		NextReviewDate:  DateOf(createdAt),
	}
}

// Validate checks the schedule-state invariants: easiness at or above the 1.3
// floor, non-negative interval and repetition count, and a next-review date
// consistent with the last review.
func (s ScheduleState) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if !s.LastReviewedAt.IsZero() {
		want := DateOf(s.LastReviewedAt).AddDate(0, 0, s.IntervalDays)
		if CompareDates(s.NextReviewDate, want) != 0 {
			return fmt.Errorf("next review date %s inconsistent with last review %s + %d days",
				s.NextReviewDate.Format(time.DateOnly), s.LastReviewedAt.Format(time.DateOnly), s.IntervalDays)
		}
	}
	return nil
}

// Due reports whether the item is due on or before the given date. Due-ness
// is a calendar question: the locations the two timestamps carry do not
// matter, only their dates.
func (s ScheduleState) Due(asOf time.Time) bool {
	return CompareDates(s.NextReviewDate, asOf) <= 0
}

// DateOf truncates a timestamp to its calendar date, keeping the location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CompareDates orders two timestamps by calendar date alone, ignoring time of
// day and location. Comparing instants instead would shift same-day dates
// across a day boundary whenever the two values carry different zones.
func CompareDates(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	switch {
	case ay != by:
		return cmp.Compare(ay, by)
	case am != bm:
		return cmp.Compare(int(am), int(bm))
	default:
		return cmp.Compare(ad, bd)
	}
}
