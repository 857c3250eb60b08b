package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pholn/mnemo/internal/store"
)

// The driver reports constraint failures as extended result codes rendered
// into the error text, so violations are detected by message substring.

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation checks if an error is a SQLite FOREIGN KEY constraint violation.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isCheckViolation checks if an error is a SQLite CHECK constraint violation.
func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

// mapError translates driver errors into the store's error taxonomy.
// Errors with no defined mapping pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: unique constraint violation: %v", store.ErrDuplicate, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: foreign key constraint violation: %v", store.ErrInvalidEntity, err)
	case isCheckViolation(err):
		return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
	}

	return err
}

// mapUniqueViolation returns specificError when err is a unique violation,
// and the generic mapping otherwise.
func mapUniqueViolation(err error, specificError error) error {
	if isUniqueViolation(err) {
		return specificError
	}
	return mapError(err)
}
