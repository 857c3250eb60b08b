package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pholn/mnemo/internal/domain"
)

// Row structs are what sqlx scans into and binds from. They keep the Unix
// second and millisecond encodings out of the domain types.

func toUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	ReminderHour int       `db:"reminder_hour"`
	CreatedAt    int64     `db:"created_at"`
	LastActiveAt int64     `db:"last_active_at"`
}

func newUserRow(u *domain.User) userRow {
	return userRow{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ReminderHour: u.ReminderHour,
		CreatedAt:    toUnix(u.CreatedAt),
		LastActiveAt: toUnix(u.LastActiveAt),
	}
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		ReminderHour: r.ReminderHour,
		CreatedAt:    fromUnix(r.CreatedAt),
		LastActiveAt: fromUnix(r.LastActiveAt),
	}
}

type deckRow struct {
	ID          uuid.UUID `db:"id"`
	OwnerID     uuid.UUID `db:"owner_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	Visibility  string    `db:"visibility"`
	CreatedAt   int64     `db:"created_at"`
}

func newDeckRow(d *domain.Deck) deckRow {
	return deckRow{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Visibility:  string(d.Visibility),
		CreatedAt:   toUnix(d.CreatedAt),
	}
}

func (r deckRow) toDomain() *domain.Deck {
	return &domain.Deck{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Visibility:  domain.Visibility(r.Visibility),
		CreatedAt:   fromUnix(r.CreatedAt),
	}
}

type cardRow struct {
	ID          uuid.UUID `db:"id"`
	DeckID      uuid.UUID `db:"deck_id"`
	CardType    string    `db:"card_type"`
	Prompt      string    `db:"prompt"`
	Answer      string    `db:"answer"`
	Translation string    `db:"translation"`
	Example     string    `db:"example"`
	MediaRef    string    `db:"media_ref"`
	Position    int       `db:"position"`
	CreatedAt   int64     `db:"created_at"`
}

func newCardRow(c *domain.Card) cardRow {
	return cardRow{
		ID:          c.ID,
		DeckID:      c.DeckID,
		CardType:    string(c.Type),
		Prompt:      c.Prompt,
		Answer:      c.Answer,
		Translation: c.Translation,
		Example:     c.Example,
		MediaRef:    c.MediaRef,
		Position:    c.Position,
		CreatedAt:   toUnix(c.CreatedAt),
	}
}

func (r cardRow) toDomain() *domain.Card {
	return &domain.Card{
		ID:          r.ID,
		DeckID:      r.DeckID,
		Type:        domain.CardType(r.CardType),
		Prompt:      r.Prompt,
		Answer:      r.Answer,
		Translation: r.Translation,
		Example:     r.Example,
		MediaRef:    r.MediaRef,
		Position:    r.Position,
		CreatedAt:   fromUnix(r.CreatedAt),
	}
}

type progressRow struct {
	UserID         uuid.UUID     `db:"user_id"`
	CardID         uuid.UUID     `db:"card_id"`
	Repetition     int           `db:"repetition"`
	EaseFactor     float64       `db:"ease_factor"`
	IntervalDays   int           `db:"interval_days"`
	DueAt          int64         `db:"due_at"`
	LapseCount     int           `db:"lapse_count"`
	LastReviewedAt sql.NullInt64 `db:"last_reviewed_at"`
	TimesSeen      int           `db:"times_seen"`
	CreatedAt      int64         `db:"created_at"`
	UpdatedAt      int64         `db:"updated_at"`
}

func newProgressRow(p *domain.Progress) progressRow {
	row := progressRow{
		UserID:       p.UserID,
		CardID:       p.CardID,
		Repetition:   p.Repetition,
		EaseFactor:   p.EaseFactor,
		IntervalDays: p.IntervalDays,
		DueAt:        toUnix(p.DueAt),
		LapseCount:   p.LapseCount,
		TimesSeen:    p.TimesSeen,
		CreatedAt:    toUnix(p.CreatedAt),
		UpdatedAt:    toUnix(p.UpdatedAt),
	}
	if !p.LastReviewedAt.IsZero() {
		row.LastReviewedAt = sql.NullInt64{Int64: toUnix(p.LastReviewedAt), Valid: true}
	}
	return row
}

func (r progressRow) toDomain() *domain.Progress {
	p := &domain.Progress{
		UserID:       r.UserID,
		CardID:       r.CardID,
		Repetition:   r.Repetition,
		EaseFactor:   r.EaseFactor,
		IntervalDays: r.IntervalDays,
		DueAt:        fromUnix(r.DueAt),
		LapseCount:   r.LapseCount,
		TimesSeen:    r.TimesSeen,
		CreatedAt:    fromUnix(r.CreatedAt),
		UpdatedAt:    fromUnix(r.UpdatedAt),
	}
	if r.LastReviewedAt.Valid {
		p.LastReviewedAt = fromUnix(r.LastReviewedAt.Int64)
	}
	return p
}

type summaryRow struct {
	ID           uuid.UUID     `db:"id"`
	UserID       uuid.UUID     `db:"user_id"`
	DeckID       uuid.NullUUID `db:"deck_id"`
	StartedAt    int64         `db:"started_at"`
	EndedAt      int64         `db:"ended_at"`
	CardsSeen    int           `db:"cards_seen"`
	CardsRated   int           `db:"cards_rated"`
	CardsKnown   int           `db:"cards_known"`
	Accuracy     float64       `db:"accuracy"`
	DurationMs   int64         `db:"duration_ms"`
	StatsApplied bool          `db:"stats_applied"`
	CreatedAt    int64         `db:"created_at"`
}

func newSummaryRow(s *domain.SessionSummary) summaryRow {
	return summaryRow{
		ID:           s.ID,
		UserID:       s.UserID,
		DeckID:       uuid.NullUUID{UUID: s.DeckID, Valid: s.DeckID != uuid.Nil},
		StartedAt:    toUnix(s.StartedAt),
		EndedAt:      toUnix(s.EndedAt),
		CardsSeen:    s.CardsSeen,
		CardsRated:   s.CardsRated,
		CardsKnown:   s.CardsKnown,
		Accuracy:     s.Accuracy,
		DurationMs:   s.Duration.Milliseconds(),
		StatsApplied: s.StatsApplied,
		CreatedAt:    toUnix(s.CreatedAt),
	}
}

func (r summaryRow) toDomain() *domain.SessionSummary {
	s := &domain.SessionSummary{
		ID:           r.ID,
		UserID:       r.UserID,
		StartedAt:    fromUnix(r.StartedAt),
		EndedAt:      fromUnix(r.EndedAt),
		CardsSeen:    r.CardsSeen,
		CardsRated:   r.CardsRated,
		CardsKnown:   r.CardsKnown,
		Accuracy:     r.Accuracy,
		Duration:     time.Duration(r.DurationMs) * time.Millisecond,
		StatsApplied: r.StatsApplied,
		CreatedAt:    fromUnix(r.CreatedAt),
	}
	if r.DeckID.Valid {
		s.DeckID = r.DeckID.UUID
	}
	return s
}

type statsRow struct {
	UserID        uuid.UUID     `db:"user_id"`
	CurrentStreak int           `db:"current_streak"`
	LongestStreak int           `db:"longest_streak"`
	CardsStudied  int64         `db:"cards_studied"`
	StudyTimeMs   int64         `db:"study_time_ms"`
	LastStudyDate sql.NullInt64 `db:"last_study_date"`
	CreatedAt     int64         `db:"created_at"`
	UpdatedAt     int64         `db:"updated_at"`
}

func newStatsRow(s *domain.UserStats) statsRow {
	row := statsRow{
		UserID:        s.UserID,
		CurrentStreak: s.CurrentStreak,
		LongestStreak: s.LongestStreak,
		CardsStudied:  s.CardsStudied,
		StudyTimeMs:   s.StudyTime.Milliseconds(),
		CreatedAt:     toUnix(s.CreatedAt),
		UpdatedAt:     toUnix(s.UpdatedAt),
	}
	if !s.LastStudyDate.IsZero() {
		row.LastStudyDate = sql.NullInt64{Int64: toUnix(s.LastStudyDate), Valid: true}
	}
	return row
}

func (r statsRow) toDomain() *domain.UserStats {
	s := &domain.UserStats{
		UserID:        r.UserID,
		CurrentStreak: r.CurrentStreak,
		LongestStreak: r.LongestStreak,
		CardsStudied:  r.CardsStudied,
		StudyTime:     time.Duration(r.StudyTimeMs) * time.Millisecond,
		CreatedAt:     fromUnix(r.CreatedAt),
		UpdatedAt:     fromUnix(r.UpdatedAt),
	}
	if r.LastStudyDate.Valid {
		s.LastStudyDate = fromUnix(r.LastStudyDate.Int64)
	}
	return s
}
