// Package srs implements the SM-2 style spaced-repetition scheduler. The
// algorithm is a pure computation over a progress record and a recall grade;
// callers persist the result.
package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
)

// ErrNilProgress is returned when Advance receives a nil progress record.
var ErrNilProgress = errors.New("progress record cannot be nil")

// Service computes the next scheduling state for a progress record. It is
// deterministic and performs no I/O; implementations must be safe for
// concurrent use.
type Service interface {
	// Advance applies the grade to the progress record as of the given
	// instant and returns a new record; the input is never mutated.
	// Returns domain.ErrInvalidGrade for unknown grades before any
	// computation.
	Advance(progress *domain.Progress, grade domain.Grade, now time.Time) (*domain.Progress, error)
}

type defaultService struct {
	params Params
}

// NewService creates a scheduler Service with the given parameters.
func NewService(params Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler params: %w", err)
	}
	return &defaultService{params: params}, nil
}

// NewDefaultService creates a scheduler Service with the standard
// parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// Advance implements Service.
//
// Grade semantics:
//   - Again: repetition resets to 0, interval resets to the lapse interval,
//     lapse count increments, ease drops.
//   - Hard: repetition increments, interval grows sub-linearly with a
//     guaranteed one-day advance, ease drops slightly.
//   - Good: repetition increments, interval follows the 1-day / 6-day /
//     geometric ladder, ease unchanged.
//   - Easy: repetition increments, interval is the Good interval with a
//     bonus multiplier and a floor, ease rises slightly.
//
// The ease factor is adjusted before the interval is computed, so Easy
// intervals grow with the raised ease.
func (s *defaultService) Advance(
	progress *domain.Progress,
	grade domain.Grade,
	now time.Time,
) (*domain.Progress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}
	if !grade.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidGrade, grade)
	}

	now = now.UTC()
	next := *progress

	if grade == domain.GradeAgain {
		next.Repetition = 0
		next.LapseCount++
	} else {
		next.Repetition++
	}

	next.EaseFactor = nextEaseFactor(progress.EaseFactor, grade, s.params)
	next.IntervalDays = nextInterval(progress, grade, next.EaseFactor, s.params)
	next.DueAt = clock.StartOfDay(now).AddDate(0, 0, next.IntervalDays)
	next.LastReviewedAt = now
	next.TimesSeen++
	next.UpdatedAt = now

	return &next, nil
}
