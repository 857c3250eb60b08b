package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pholn/mnemo/internal/domain"
	"github.com/pholn/mnemo/internal/platform/logger"
	"github.com/pholn/mnemo/internal/store"
)

// SQLiteUserStore implements the store.UserStore interface
// using an embedded SQLite database as the storage backend.
type SQLiteUserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewSQLiteUserStore creates a new SQLite implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewSQLiteUserStore(db *sqlx.DB, logger *slog.Logger) *SQLiteUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure SQLiteUserStore implements store.UserStore interface
var _ store.UserStore = (*SQLiteUserStore)(nil)

// Create implements store.UserStore.Create
// Returns store.ErrUsernameExists if the username is already taken.
func (s *SQLiteUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, username, first_name, last_name, reminder_hour, created_at, last_active_at)
		VALUES (:id, :username, :first_name, :last_name, :reminder_hour, :created_at, :last_active_at)
	`
	_, err := s.db.NamedExecContext(ctx, query, newUserRow(user))
	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("username already exists",
				slog.String("user_id", user.ID.String()),
				slog.String("username", user.Username))
			return mapUniqueViolation(err, store.ErrUsernameExists)
		}

		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))
	return nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *SQLiteUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, username, first_name, last_name, reminder_hour, created_at, last_active_at
		FROM users
		WHERE id = ?
	`

	var row userRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, err
	}

	return row.toDomain(), nil
}

// GetByUsername implements store.UserStore.GetByUsername
// Returns store.ErrUserNotFound if the user does not exist.
func (s *SQLiteUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, username, first_name, last_name, reminder_hour, created_at, last_active_at
		FROM users
		WHERE username = ?
	`

	var row userRow
	if err := s.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("username", username))
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by username",
			slog.String("error", err.Error()),
			slog.String("username", username))
		return nil, err
	}

	return row.toDomain(), nil
}

// Update implements store.UserStore.Update
// Returns store.ErrUserNotFound if the user does not exist.
// Returns store.ErrUsernameExists if updating to a username that already exists.
func (s *SQLiteUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		UPDATE users
		SET username = :username, first_name = :first_name, last_name = :last_name,
		    reminder_hour = :reminder_hour, last_active_at = :last_active_at
		WHERE id = :id
	`

	result, err := s.db.NamedExecContext(ctx, query, newUserRow(user))
	if err != nil {
		if isUniqueViolation(err) {
			return mapUniqueViolation(err, store.ErrUsernameExists)
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("user not found for update",
			slog.String("user_id", user.ID.String()))
		return store.ErrUserNotFound
	}

	log.Debug("user updated successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

// ListByReminderHour implements store.UserStore.ListByReminderHour
// It retrieves all users with a reminder scheduled for the given UTC hour.
func (s *SQLiteUserStore) ListByReminderHour(ctx context.Context, hour int) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, username, first_name, last_name, reminder_hour, created_at, last_active_at
		FROM users
		WHERE reminder_hour = ?
		ORDER BY created_at ASC
	`

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, hour); err != nil {
		log.Error("failed to query users by reminder hour",
			slog.String("error", err.Error()),
			slog.Int("hour", hour))
		return nil, err
	}

	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}
