// Package sm2 implements the SM-2 spaced-repetition scheduling algorithm as a
// pure state-transition function. It performs no I/O; persistence is the
// storage package's concern.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/artloop/artloop/internal/domain"
)

var (
	// ErrInvalidTransition means the review timestamp precedes the item's last
	// recorded review. The caller must correct the timestamp.
	ErrInvalidTransition = errors.New("sm2: review timestamp precedes last review")

	// ErrInvalidState means the loaded schedule state violates its invariants.
	// This indicates corruption or an upstream bug and is never repaired here.
	ErrInvalidState = errors.New("sm2: schedule state violates invariants")
)

const (
	firstInterval  = 1 // days until second review
	secondInterval = 6 // days until third review
	lapseInterval  = 1 // days after a failed recall
)

// quality maps a grade onto SM-2's 0-5 quality scale. The three grades the
// review UI offers all count as successful recall (q >= 3); Again is the
// lapse grade.
func quality(r domain.Rating) int {
	switch r {
	case domain.Again:
		return 2
	case domain.Hard:
		return 3
	case domain.Medium:
		return 4
	default:
		return 5
	}
}

// Next computes the schedule state that follows a review of the given grade at
// time now. The input state is not modified.
//
// Easiness moves by the standard SM-2 delta and is clamped at 1.3. A quality
// score of 3 or more counts as a successful repetition: the repetition count
// increments and the interval follows the 1, 6, round(prev * E') progression.
// A lapse (Again) resets the repetition count and schedules the item one day
// out.
func Next(current domain.ScheduleState, rating domain.Rating, now time.Time) (domain.ScheduleState, error) {
	if !rating.IsValid() {
		return domain.ScheduleState{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}
	if err := current.Validate(); err != nil {
		return domain.ScheduleState{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !current.LastReviewedAt.IsZero() && now.Before(current.LastReviewedAt) {
		return domain.ScheduleState{}, fmt.Errorf("%w: %s before %s",
			ErrInvalidTransition, now.Format(time.RFC3339), current.LastReviewedAt.Format(time.RFC3339))
	}

	q := quality(rating)

	ease := current.EasinessFactor + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.02))
	if ease < domain.MinEasinessFactor {
		ease = domain.MinEasinessFactor
	}

	next := current
	next.EasinessFactor = ease

	if q < 3 {
		next.RepetitionCount = 0
		next.IntervalDays = lapseInterval
	} else {
		next.RepetitionCount = current.RepetitionCount + 1
		switch next.RepetitionCount {
		case 1:
			next.IntervalDays = firstInterval
		case 2:
			next.IntervalDays = secondInterval
		default:
			next.IntervalDays = int(math.Round(float64(current.IntervalDays) * ease))
		}
	}

	next.LastReviewedAt = now
	next.NextReviewDate = domain.DateOf(now).AddDate(0, 0, next.IntervalDays)
	return next, nil
}
