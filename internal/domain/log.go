package domain

import "time"

// ReviewLogEntry records a single review event for an artwork. Entries are
// append-only: once written they are never edited or deleted by the scheduler.
type ReviewLogEntry struct {
	ItemID                  string    `json:"itemId"`
	ReviewedAt              time.Time `json:"reviewedAt"`
	Rating                  Rating    `json:"rating"`
	ResultingIntervalDays   int       `json:"resultingIntervalDays"`
	ResultingEasinessFactor float64   `json:"resultingEasinessFactor"`
}

// ProgressStats summarizes a reviewer's standing across the catalog.
type ProgressStats struct {
	TotalArtworks int `json:"totalArtworks"`
	Reviewed      int `json:"reviewed"`
	DueToday      int `json:"dueToday"`
}
