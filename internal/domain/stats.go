package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stats-specific validation errors
var (
	// ErrStatsUserIDEmpty is returned when a stats record's user ID is
	// empty or nil.
	ErrStatsUserIDEmpty = errors.New("stats user ID cannot be empty")

	// ErrStatsCountsInvalid is returned when streaks or totals are negative.
	ErrStatsCountsInvalid = errors.New("stats counts cannot be negative")
)

// UserStats is the long-horizon aggregate for one user, updated once per
// completed session. LastStudyDate is midnight UTC of the most recent study
// day; the zero time means the user has never completed a session.
type UserStats struct {
	UserID        uuid.UUID     `json:"user_id"`
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	CardsStudied  int64         `json:"cards_studied"`
	StudyTime     time.Duration `json:"study_time"`
	LastStudyDate time.Time     `json:"last_study_date"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewUserStats returns zeroed stats for a user with no study history.
func NewUserStats(userID uuid.UUID) *UserStats {
	return &UserStats{UserID: userID}
}

// Validate checks if the UserStats record has valid data.
func (s *UserStats) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrStatsUserIDEmpty
	}

	if s.CurrentStreak < 0 || s.LongestStreak < 0 || s.CardsStudied < 0 || s.StudyTime < 0 {
		return ErrStatsCountsInvalid
	}

	if s.CurrentStreak > s.LongestStreak {
		return ErrStatsCountsInvalid
	}

	return nil
}
