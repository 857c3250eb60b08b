package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewProgress(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	cardID := uuid.New()
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	p := NewProgress(userID, cardID, now)

	if p.Repetition != 0 {
		t.Errorf("Repetition = %d, want 0", p.Repetition)
	}
	if p.EaseFactor != DefaultEaseFactor {
		t.Errorf("EaseFactor = %v, want %v", p.EaseFactor, DefaultEaseFactor)
	}
	if p.IntervalDays != 0 {
		t.Errorf("IntervalDays = %d, want 0", p.IntervalDays)
	}

	wantDue := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !p.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want %v", p.DueAt, wantDue)
	}

	if !p.IsDue(now) {
		t.Error("fresh progress record should be due immediately")
	}

	if err := p.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestProgressValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Progress)
		wantErr error
	}{
		{"nil user", func(p *Progress) { p.UserID = uuid.Nil }, ErrProgressUserIDEmpty},
		{"nil card", func(p *Progress) { p.CardID = uuid.Nil }, ErrProgressCardIDEmpty},
		{"zero ease", func(p *Progress) { p.EaseFactor = 0 }, ErrProgressEaseInvalid},
		{"negative ease", func(p *Progress) { p.EaseFactor = -1.3 }, ErrProgressEaseInvalid},
		{"negative repetition", func(p *Progress) { p.Repetition = -1 }, ErrProgressCountsInvalid},
		{"negative interval", func(p *Progress) { p.IntervalDays = -1 }, ErrProgressCountsInvalid},
		{"negative lapses", func(p *Progress) { p.LapseCount = -2 }, ErrProgressCountsInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc := tc
			t.Parallel()

			p := NewProgress(uuid.New(), uuid.New(), now)
			tc.mutate(p)
			if err := p.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestProgressIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	p := NewProgress(uuid.New(), uuid.New(), now)
	p.DueAt = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	if p.IsDue(time.Date(2024, 3, 19, 23, 59, 0, 0, time.UTC)) {
		t.Error("card should not be due the day before its due date")
	}
	if !p.IsDue(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)) {
		t.Error("card should be due at midnight of its due day")
	}
	if !p.IsDue(time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)) {
		t.Error("overdue card should be due")
	}
}
