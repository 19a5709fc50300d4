package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRating is returned when a rating value is outside the known grades.
var ErrInvalidRating = errors.New("invalid rating")

// Rating is the user's assessment of recall quality after reviewing an artwork.
// The review UI offers Hard, Medium and Easy. Again marks a complete failure to
// recall; no current caller emits it, but the scheduler handles it (see sm2).
type Rating int

const (
	Again Rating = iota + 1
	Hard
	Medium
	Easy
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Medium: "Medium", Easy: "Easy"}

var ratingByName = map[string]Rating{
	"Again":  Again,
	"Hard":   Hard,
	"Medium": Medium,
	"Easy":   Easy,
}

// IsValid reports whether r is one of the known grades.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the grade name, or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, ok := ratingByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRating, text)
	}
	*r = v
	return nil
}
