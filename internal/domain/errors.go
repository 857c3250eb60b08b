package domain

import "errors"

// Common domain errors used across the engine.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is usually wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidGrade is returned when a recall grade is not one of the
	// four known values.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrInvalidCardType is returned when a card type is outside the
	// closed set of known types.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrInvalidVisibility is returned when a deck visibility is neither
	// private nor shared.
	ErrInvalidVisibility = errors.New("invalid deck visibility")
)
