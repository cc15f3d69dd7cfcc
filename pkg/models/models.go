package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"

	"moderation/pkg/moderation"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrTextMissing      = errors.New("review text missing")
	ErrTextTooLong      = errors.New("review text too long")
	ErrRatingOutOfRange = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
)

// Review is a submission waiting for moderation. Text is a pointer so that a
// missing field is rejected instead of being read as an empty review.
type Review struct {
	ID     uuid.UUID `json:"id"`
	BookID uuid.UUID `json:"book_id"`
	UserID uuid.UUID `json:"user_id"`
	Text   *string   `json:"text"`
	Rating int       `json:"rating"`
}

// Validate checks the caller contract of the moderation engine. maxTextLength
// is counted in characters; zero disables the limit.
func (r Review) Validate(maxTextLength int) error {
	if r.Text == nil {
		return ErrTextMissing
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("%w: got %d", ErrRatingOutOfRange, r.Rating)
	}
	if maxTextLength > 0 && utf8.RuneCountInString(*r.Text) > maxTextLength {
		return fmt.Errorf("%w: limit is %d characters", ErrTextTooLong, maxTextLength)
	}
	return nil
}

// EnsureID generates a review ID when the caller did not provide one.
func (r *Review) EnsureID() error {
	if r.ID != uuid.Nil {
		return nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

// VerdictEvent is published for every moderated review.
type VerdictEvent struct {
	ReviewID    uuid.UUID          `json:"review_id"`
	BookID      uuid.UUID          `json:"book_id"`
	UserID      uuid.UUID          `json:"user_id"`
	Verdict     moderation.Verdict `json:"verdict"`
	ModeratedAt time.Time          `json:"moderated_at"`
	Service     string             `json:"service"`
}

// LogEntry describes one served HTTP request.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	IP         string    `json:"ip"`
	StatusCode int       `json:"status_code"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Duration   float64   `json:"duration_sec"`
	Service    string    `json:"service"`
}
