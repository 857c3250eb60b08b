package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User-specific validation errors
var (
	// ErrUserIDEmpty is returned when a user ID is empty or nil.
	ErrUserIDEmpty = errors.New("user ID cannot be empty")

	// ErrUsernameEmpty is returned when a username is empty.
	ErrUsernameEmpty = errors.New("username cannot be empty")

	// ErrReminderHourInvalid is returned when a reminder hour is outside
	// 0-23 and not the disabled sentinel.
	ErrReminderHourInvalid = errors.New("reminder hour must be 0-23 or disabled")
)

// ReminderDisabled is the ReminderHour value for users who opted out of
// due-card reminders.
const ReminderDisabled = -1

// User represents a learner. The delivery layer maps its own identity scheme
// (chat IDs, account names) onto engine user IDs.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	ReminderHour int       `json:"reminder_hour"` // UTC hour 0-23, ReminderDisabled when off
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// NewUser creates a User with the given username and display name.
// Reminders start disabled. Returns an error if validation fails.
func NewUser(username, firstName, lastName string, now time.Time) (*User, error) {
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		ReminderHour: ReminderDisabled,
		CreatedAt:    now.UTC(),
		LastActiveAt: now.UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrUserIDEmpty
	}

	if u.Username == "" {
		return ErrUsernameEmpty
	}

	if u.ReminderHour != ReminderDisabled && (u.ReminderHour < 0 || u.ReminderHour > 23) {
		return ErrReminderHourInvalid
	}

	return nil
}

// Touch records activity at the given instant.
func (u *User) Touch(now time.Time) {
	u.LastActiveAt = now.UTC()
}

// RemindersEnabled reports whether the user receives due-card reminders.
func (u *User) RemindersEnabled() bool {
	return u.ReminderHour != ReminderDisabled
}
