package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/clock"
	"github.com/pholn/mnemo/internal/domain"
)

var reviewTime = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

// progressWith builds a progress record in a known scheduling state.
func progressWith(repetition, intervalDays int, ease float64, lapses int) *domain.Progress {
	p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime.AddDate(0, 0, -intervalDays))
	p.Repetition = repetition
	p.IntervalDays = intervalDays
	p.EaseFactor = ease
	p.LapseCount = lapses
	return p
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	tests := []struct {
		name           string
		progress       *domain.Progress
		grade          domain.Grade
		wantRepetition int
		wantInterval   int
		wantEase       float64
		wantLapses     int
	}{
		{
			name:           "fresh card graded Again",
			progress:       progressWith(0, 0, 2.5, 0),
			grade:          domain.GradeAgain,
			wantRepetition: 0,
			wantInterval:   1,
			wantEase:       2.3,
			wantLapses:     1,
		},
		{
			name:           "fresh card graded Hard",
			progress:       progressWith(0, 0, 2.5, 0),
			grade:          domain.GradeHard,
			wantRepetition: 1,
			wantInterval:   1,
			wantEase:       2.35,
			wantLapses:     0,
		},
		{
			name:           "fresh card graded Good",
			progress:       progressWith(0, 0, 2.5, 0),
			grade:          domain.GradeGood,
			wantRepetition: 1,
			wantInterval:   1,
			wantEase:       2.5,
			wantLapses:     0,
		},
		{
			name:           "fresh card graded Easy hits the easy floor",
			progress:       progressWith(0, 0, 2.5, 0),
			grade:          domain.GradeEasy,
			wantRepetition: 1,
			wantInterval:   14,
			wantEase:       2.65,
			wantLapses:     0,
		},
		{
			name:           "second Good uses the six day step",
			progress:       progressWith(1, 1, 2.5, 0),
			grade:          domain.GradeGood,
			wantRepetition: 2,
			wantInterval:   6,
			wantEase:       2.5,
			wantLapses:     0,
		},
		{
			name:           "third Good grows geometrically",
			progress:       progressWith(2, 6, 2.5, 0),
			grade:          domain.GradeGood,
			wantRepetition: 3,
			wantInterval:   15,
			wantEase:       2.5,
			wantLapses:     0,
		},
		{
			name:           "mature Good multiplies by ease",
			progress:       progressWith(5, 30, 2.1, 0),
			grade:          domain.GradeGood,
			wantRepetition: 6,
			wantInterval:   63,
			wantEase:       2.1,
			wantLapses:     0,
		},
		{
			name:           "mature Again resets repetition and interval",
			progress:       progressWith(5, 30, 2.1, 1),
			grade:          domain.GradeAgain,
			wantRepetition: 0,
			wantInterval:   1,
			wantEase:       1.9,
			wantLapses:     2,
		},
		{
			name:           "Good after a lapse restarts the ladder",
			progress:       progressWith(0, 1, 2.3, 1),
			grade:          domain.GradeGood,
			wantRepetition: 1,
			wantInterval:   1,
			wantEase:       2.3,
			wantLapses:     1,
		},
		{
			name:           "Hard grows sub-linearly",
			progress:       progressWith(3, 10, 2.5, 0),
			grade:          domain.GradeHard,
			wantRepetition: 4,
			wantInterval:   12,
			wantEase:       2.35,
			wantLapses:     0,
		},
		{
			name:           "Hard always advances at least one day",
			progress:       progressWith(1, 1, 2.5, 0),
			grade:          domain.GradeHard,
			wantRepetition: 2,
			wantInterval:   2,
			wantEase:       2.35,
			wantLapses:     0,
		},
		{
			name:           "Easy applies bonus above the floor",
			progress:       progressWith(2, 6, 2.5, 0),
			grade:          domain.GradeEasy,
			wantRepetition: 3,
			wantInterval:   21, // round(round(6*2.65) * 1.3)
			wantEase:       2.65,
			wantLapses:     0,
		},
		{
			name:           "Easy floor overrides short intervals",
			progress:       progressWith(1, 1, 2.5, 0),
			grade:          domain.GradeEasy,
			wantRepetition: 2,
			wantInterval:   14, // six day step with bonus is below the floor
			wantEase:       2.65,
			wantLapses:     0,
		},
		{
			name:           "ease factor never drops below the floor",
			progress:       progressWith(0, 1, 1.35, 3),
			grade:          domain.GradeAgain,
			wantRepetition: 0,
			wantInterval:   1,
			wantEase:       1.3,
			wantLapses:     4,
		},
		{
			name:           "ease factor never exceeds the ceiling",
			progress:       progressWith(4, 40, 2.95, 0),
			grade:          domain.GradeEasy,
			wantRepetition: 5,
			wantInterval:   156, // round(round(40*3.0) * 1.3)
			wantEase:       3.0,
			wantLapses:     0,
		},
		{
			name:           "interval is capped at a year",
			progress:       progressWith(10, 300, 2.5, 0),
			grade:          domain.GradeGood,
			wantRepetition: 11,
			wantInterval:   365,
			wantEase:       2.5,
			wantLapses:     0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc := tc
			t.Parallel()

			before := *tc.progress
			next, err := svc.Advance(tc.progress, tc.grade, reviewTime)
			if err != nil {
				t.Fatalf("Advance returned error: %v", err)
			}

			if next.Repetition != tc.wantRepetition {
				t.Errorf("Repetition = %d, want %d", next.Repetition, tc.wantRepetition)
			}
			if next.IntervalDays != tc.wantInterval {
				t.Errorf("IntervalDays = %d, want %d", next.IntervalDays, tc.wantInterval)
			}
			if !floatEq(next.EaseFactor, tc.wantEase) {
				t.Errorf("EaseFactor = %v, want %v", next.EaseFactor, tc.wantEase)
			}
			if next.LapseCount != tc.wantLapses {
				t.Errorf("LapseCount = %d, want %d", next.LapseCount, tc.wantLapses)
			}

			wantDue := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, tc.wantInterval)
			if !next.DueAt.Equal(wantDue) {
				t.Errorf("DueAt = %v, want %v", next.DueAt, wantDue)
			}
			if !next.LastReviewedAt.Equal(reviewTime) {
				t.Errorf("LastReviewedAt = %v, want %v", next.LastReviewedAt, reviewTime)
			}
			if next.TimesSeen != before.TimesSeen+1 {
				t.Errorf("TimesSeen = %d, want %d", next.TimesSeen, before.TimesSeen+1)
			}

			// Advance must not mutate its input.
			if *tc.progress != before {
				t.Error("Advance mutated the input progress record")
			}
		})
	}
}

func TestAdvanceGoodLadderFromFresh(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime)

	first, err := svc.Advance(p, domain.GradeGood, reviewTime)
	if err != nil {
		t.Fatalf("first Advance returned error: %v", err)
	}
	if first.IntervalDays != 1 {
		t.Fatalf("first Good interval = %d, want 1", first.IntervalDays)
	}

	second, err := svc.Advance(first, domain.GradeGood, reviewTime.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("second Advance returned error: %v", err)
	}
	if second.IntervalDays != 6 {
		t.Fatalf("second Good interval = %d, want 6", second.IntervalDays)
	}
}

// TestAdvanceInvariants walks every grade sequence of length three from a
// fresh record and checks the bounds that must hold for any history: the due
// date lands strictly after the review day, the interval is at least one
// day, and the ease factor stays inside its bounds.
func TestAdvanceInvariants(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	params := NewDefaultParams()
	grades := []domain.Grade{domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy}

	var sequences [][]domain.Grade
	for _, a := range grades {
		for _, b := range grades {
			for _, c := range grades {
				sequences = append(sequences, []domain.Grade{a, b, c})
			}
		}
	}

	for _, seq := range sequences {
		p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime)
		now := reviewTime

		for i, grade := range seq {
			next, err := svc.Advance(p, grade, now)
			if err != nil {
				t.Fatalf("sequence %v step %d: %v", seq, i, err)
			}

			if next.IntervalDays < 1 {
				t.Fatalf("sequence %v step %d: interval %d < 1", seq, i, next.IntervalDays)
			}
			if next.IntervalDays > params.MaxIntervalDays {
				t.Fatalf("sequence %v step %d: interval %d above cap", seq, i, next.IntervalDays)
			}
			if !next.DueAt.After(clock.StartOfDay(now)) {
				t.Fatalf("sequence %v step %d: due %v not after review day %v", seq, i, next.DueAt, now)
			}
			if next.EaseFactor < params.MinEaseFactor || next.EaseFactor > params.MaxEaseFactor {
				t.Fatalf("sequence %v step %d: ease %v out of bounds", seq, i, next.EaseFactor)
			}

			p = next
			now = next.DueAt.Add(10 * time.Hour)
		}
	}
}

func TestRepeatedGradesConvergeOnEaseBounds(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()
	params := NewDefaultParams()

	t.Run("Again converges on the floor", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime)
		now := reviewTime
		for i := 0; i < 12; i++ {
			next, err := svc.Advance(p, domain.GradeAgain, now)
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			p = next
			now = now.AddDate(0, 0, 1)
		}
		if !floatEq(p.EaseFactor, params.MinEaseFactor) {
			t.Errorf("ease after repeated Again = %v, want %v", p.EaseFactor, params.MinEaseFactor)
		}
		if p.LapseCount != 12 {
			t.Errorf("LapseCount = %d, want 12", p.LapseCount)
		}
	})

	t.Run("Easy converges on the ceiling", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime)
		now := reviewTime
		for i := 0; i < 12; i++ {
			next, err := svc.Advance(p, domain.GradeEasy, now)
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
			p = next
			now = next.DueAt.Add(time.Hour)
		}
		if !floatEq(p.EaseFactor, params.MaxEaseFactor) {
			t.Errorf("ease after repeated Easy = %v, want %v", p.EaseFactor, params.MaxEaseFactor)
		}
	})
}

func floatEq(a, b float64) bool {
	const eps = 1e-9
	diff := a - b
	return diff < eps && diff > -eps
}
