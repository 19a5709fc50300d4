package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/artloop/artloop/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "artloop.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var reviewTime = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func reviewedState(itemID string, at time.Time) (domain.ScheduleState, domain.ReviewLogEntry) {
	state := domain.ScheduleState{
		ItemID:          itemID,
		EasinessFactor:  2.6,
		IntervalDays:    1,
		RepetitionCount: 1,
		NextReviewDate:  domain.DateOf(at).AddDate(0, 0, 1),
		LastReviewedAt:  at,
	}
	entry := domain.ReviewLogEntry{
		ItemID:                  itemID,
		ReviewedAt:              at,
		Rating:                  domain.Easy,
		ResultingIntervalDays:   state.IntervalDays,
		ResultingEasinessFactor: state.EasinessFactor,
	}
	return state, entry
}

func TestFindScheduleStateMissing(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.FindScheduleState("never-reviewed")
	if err != nil {
		t.Fatalf("FindScheduleState returned error: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected nil for a never-reviewed item, got %+v", rec)
	}
}

func TestApplyReviewRoundTrip(t *testing.T) {
	db := openTestDB(t)
	state, entry := reviewedState("mona-lisa", reviewTime)

	if err := db.ApplyReview(state, entry, 0); err != nil {
		t.Fatalf("ApplyReview failed: %v", err)
	}

	rec, err := db.FindScheduleState("mona-lisa")
	if err != nil {
		t.Fatalf("FindScheduleState returned error: %v", err)
	}
	if rec == nil {
		t.Fatal("Expected stored state, got nil")
	}
	if rec.Version != 1 {
		t.Errorf("Expected version 1 after first review, got %d", rec.Version)
	}
	got := rec.State
	if got.ItemID != state.ItemID || got.EasinessFactor != state.EasinessFactor ||
		got.IntervalDays != state.IntervalDays || got.RepetitionCount != state.RepetitionCount {
		t.Errorf("Stored state mismatch: want %+v, got %+v", state, got)
	}
	if !got.NextReviewDate.Equal(state.NextReviewDate) {
		t.Errorf("Expected next review %v, got %v", state.NextReviewDate, got.NextReviewDate)
	}
	if !got.LastReviewedAt.Equal(state.LastReviewedAt) {
		t.Errorf("Expected last reviewed %v, got %v", state.LastReviewedAt, got.LastReviewedAt)
	}

	entries, err := db.ReviewLogFor("mona-lisa")
	if err != nil {
		t.Fatalf("ReviewLogFor returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Rating != domain.Easy || entries[0].ResultingIntervalDays != 1 {
		t.Errorf("Log entry mismatch: %+v", entries[0])
	}
}

func TestApplyReviewVersionIncrements(t *testing.T) {
	db := openTestDB(t)
	state, entry := reviewedState("guernica", reviewTime)
	if err := db.ApplyReview(state, entry, 0); err != nil {
		t.Fatalf("first review: %v", err)
	}

	second := state
	second.RepetitionCount = 2
	second.IntervalDays = 6
	second.LastReviewedAt = reviewTime.AddDate(0, 0, 1)
	second.NextReviewDate = domain.DateOf(second.LastReviewedAt).AddDate(0, 0, 6)
	entry.ReviewedAt = second.LastReviewedAt
	if err := db.ApplyReview(second, entry, 1); err != nil {
		t.Fatalf("second review: %v", err)
	}

	rec, err := db.FindScheduleState("guernica")
	if err != nil {
		t.Fatalf("FindScheduleState returned error: %v", err)
	}
	if rec.Version != 2 {
		t.Errorf("Expected version 2, got %d", rec.Version)
	}
	if rec.State.IntervalDays != 6 {
		t.Errorf("Expected interval 6, got %d", rec.State.IntervalDays)
	}
}

func TestApplyReviewConcurrentModification(t *testing.T) {
	db := openTestDB(t)
	state, entry := reviewedState("starry-night", reviewTime)
	if err := db.ApplyReview(state, entry, 0); err != nil {
		t.Fatalf("first review: %v", err)
	}

	t.Run("stale version on update", func(t *testing.T) {
		err := db.ApplyReview(state, entry, 5)
		if !errors.Is(err, ErrConcurrentModification) {
			t.Fatalf("Expected ErrConcurrentModification, got %v", err)
		}
	})

	t.Run("duplicate first review", func(t *testing.T) {
		err := db.ApplyReview(state, entry, 0)
		if !errors.Is(err, ErrConcurrentModification) {
			t.Fatalf("Expected ErrConcurrentModification, got %v", err)
		}
	})

	// The losing writes must leave no log entries behind.
	entries, err := db.ReviewLogFor("starry-night")
	if err != nil {
		t.Fatalf("ReviewLogFor returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 log entry after failed writes, got %d", len(entries))
	}
}

func TestApplyReviewAtomicity(t *testing.T) {
	db := openTestDB(t)
	state, entry := reviewedState("nighthawks", reviewTime)
	if err := db.ApplyReview(state, entry, 0); err != nil {
		t.Fatalf("first review: %v", err)
	}

	// Make the log append fail mid-transaction; the state update that
	// preceded it must be rolled back.
	if _, err := db.conn.Exec(`DROP TABLE review_log`); err != nil {
		t.Fatalf("Failed to drop review_log: %v", err)
	}

	second := state
	second.RepetitionCount = 2
	second.IntervalDays = 6
	if err := db.ApplyReview(second, entry, 1); err == nil {
		t.Fatal("Expected ApplyReview to fail with review_log missing")
	}

	rec, err := db.FindScheduleState("nighthawks")
	if err != nil {
		t.Fatalf("FindScheduleState returned error: %v", err)
	}
	if rec.Version != 1 || rec.State.IntervalDays != state.IntervalDays {
		t.Errorf("Expected state unchanged after failed commit, got version %d, interval %d",
			rec.Version, rec.State.IntervalDays)
	}
}

func TestReviewLogOrdering(t *testing.T) {
	db := openTestDB(t)
	state, entry := reviewedState("olympia", reviewTime)
	if err := db.ApplyReview(state, entry, 0); err != nil {
		t.Fatalf("first review: %v", err)
	}
	for i := 1; i <= 3; i++ {
		next := state
		next.RepetitionCount = i + 1
		next.LastReviewedAt = reviewTime.AddDate(0, 0, i)
		next.NextReviewDate = domain.DateOf(next.LastReviewedAt).AddDate(0, 0, next.IntervalDays)
		e := entry
		e.ReviewedAt = next.LastReviewedAt
		if err := db.ApplyReview(next, e, int64(i)); err != nil {
			t.Fatalf("review %d: %v", i+1, err)
		}
	}

	entries, err := db.ReviewLogFor("olympia")
	if err != nil {
		t.Fatalf("ReviewLogFor returned error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 log entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ReviewedAt.Before(entries[i-1].ReviewedAt) {
			t.Errorf("Expected entries ordered by reviewed_at ascending, got %v before %v",
				entries[i-1].ReviewedAt, entries[i].ReviewedAt)
		}
	}
}

func TestArtworkCatalog(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"b", "a", "a", "c"} {
		if err := db.InsertArtwork(id); err != nil {
			t.Fatalf("InsertArtwork(%s): %v", id, err)
		}
	}

	ids, err := db.ArtworkIDs()
	if err != nil {
		t.Fatalf("ArtworkIDs returned error: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
}
