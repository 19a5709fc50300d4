package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRatingParsing(t *testing.T) {
	var r Rating
	if err := r.UnmarshalText([]byte("Medium")); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if r != Medium {
		t.Errorf("Expected Medium, got %v", r)
	}

	if err := r.UnmarshalText([]byte("medium")); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("Expected ErrInvalidRating for lowercase input, got %v", err)
	}
	if Rating(0).IsValid() || Rating(5).IsValid() {
		t.Error("Expected out-of-range ratings to be invalid")
	}
	if got := Rating(9).String(); got != "Rating(9)" {
		t.Errorf("Expected Rating(9), got %q", got)
	}
}

func TestNewScheduleStateIsDueImmediately(t *testing.T) {
	created := time.Date(2026, 8, 30, 23, 45, 0, 0, time.UTC)
	s := NewScheduleState("mona-lisa", created)

	if err := s.Validate(); err != nil {
		t.Fatalf("Fresh state failed validation: %v", err)
	}
	if s.EasinessFactor != DefaultEasinessFactor || s.IntervalDays != 0 || s.RepetitionCount != 0 {
		t.Errorf("Unexpected defaults: %+v", s)
	}
	if !s.Due(created) {
		t.Error("Expected fresh state due at creation time")
	}
	if !s.Due(created.AddDate(0, 0, 30)) {
		t.Error("Expected fresh state due at any later date")
	}
}

func TestDueComparesCalendarDates(t *testing.T) {
	// Stored next-review dates are UTC midnights; asOf is often local time.
	// An item due on the 30th must be due at any time on the 30th, whatever
	// zone the reference timestamp carries.
	s := ScheduleState{
		ItemID:         "mona-lisa",
		EasinessFactor: DefaultEasinessFactor,
		NextReviewDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}

	sameDayAhead := time.Date(2026, 8, 30, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	if !s.Due(sameDayAhead) {
		t.Errorf("Expected item due %v at asOf %v", s.NextReviewDate, sameDayAhead)
	}

	dayBeforeBehind := time.Date(2026, 8, 29, 23, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	if s.Due(dayBeforeBehind) {
		t.Errorf("Expected item not yet due at asOf %v", dayBeforeBehind)
	}
}

func TestCompareDates(t *testing.T) {
	utcMidnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	cestMidnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	if CompareDates(utcMidnight, cestMidnight) != 0 {
		t.Error("Expected same calendar day to compare equal across zones")
	}
	if CompareDates(utcMidnight.AddDate(0, 0, -1), cestMidnight) >= 0 {
		t.Error("Expected earlier calendar day to compare less")
	}
}

func TestValidateRejectsBrokenState(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	t.Run("easiness below floor", func(t *testing.T) {
		s := NewScheduleState("a", now)
		s.EasinessFactor = 1.29
		if err := s.Validate(); err == nil {
			t.Error("Expected validation error")
		}
	})
	t.Run("negative interval", func(t *testing.T) {
		s := NewScheduleState("a", now)
		s.IntervalDays = -1
		if err := s.Validate(); err == nil {
			t.Error("Expected validation error")
		}
	})
	t.Run("missing item id", func(t *testing.T) {
		s := NewScheduleState("", now)
		if err := s.Validate(); err == nil {
			t.Error("Expected validation error")
		}
	})
	t.Run("inconsistent next review date", func(t *testing.T) {
		s := NewScheduleState("a", now)
		s.LastReviewedAt = now
		s.IntervalDays = 6
		s.NextReviewDate = DateOf(now).AddDate(0, 0, 3)
		if err := s.Validate(); err == nil {
			t.Error("Expected validation error")
		}
	})
}
