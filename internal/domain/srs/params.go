package srs

import (
	"errors"

	"github.com/pholn/mnemo/internal/domain"
)

// Params-specific validation errors
var (
	// ErrEaseBoundsInvalid is returned when the ease floor or ceiling is
	// not positive or the floor exceeds the ceiling.
	ErrEaseBoundsInvalid = errors.New("ease bounds are invalid")

	// ErrIntervalParamsInvalid is returned when an interval step, bonus,
	// or cap is not positive.
	ErrIntervalParamsInvalid = errors.New("interval parameters are invalid")
)

// Params holds the tunable constants of the scheduling algorithm. Use
// NewDefaultParams for the standard values; individual fields may be
// overridden before constructing a Service.
type Params struct {
	// MinEaseFactor is the floor applied to the ease factor on every
	// review, so repeated failures cannot drive intervals to zero growth.
	MinEaseFactor float64

	// MaxEaseFactor is the ceiling applied on every review, so repeated
	// Easy grades cannot grow the ease factor unboundedly. This engine
	// fixes the ceiling at 3.0.
	MaxEaseFactor float64

	// EaseFactorAdjustment maps each grade to the ease delta it applies.
	EaseFactorAdjustment map[domain.Grade]float64

	// HardIntervalMultiplier grows the interval on Hard. It is
	// deliberately smaller than typical ease factors; a Hard review always
	// advances the interval by at least one day.
	HardIntervalMultiplier float64

	// EasyIntervalBonus multiplies the Good-path interval on Easy.
	EasyIntervalBonus float64

	// EasyMinIntervalDays floors the Easy interval.
	EasyMinIntervalDays int

	// FirstIntervalDays is the interval after the first successful review.
	FirstIntervalDays int

	// SecondIntervalDays is the interval after the second consecutive
	// successful review.
	SecondIntervalDays int

	// AgainIntervalDays is the interval after a lapse.
	AgainIntervalDays int

	// MaxIntervalDays caps every computed interval.
	MaxIntervalDays int
}

// NewDefaultParams returns the standard scheduling constants.
func NewDefaultParams() Params {
	return Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 3.0,
		EaseFactorAdjustment: map[domain.Grade]float64{
			domain.GradeAgain: -0.20,
			domain.GradeHard:  -0.15,
			domain.GradeGood:  0.0,
			domain.GradeEasy:  0.15,
		},
		HardIntervalMultiplier: 1.2,
		EasyIntervalBonus:      1.3,
		EasyMinIntervalDays:    14,
		FirstIntervalDays:      1,
		SecondIntervalDays:     6,
		AgainIntervalDays:      1,
		MaxIntervalDays:        365,
	}
}

// Validate checks that the parameters describe a usable algorithm.
func (p Params) Validate() error {
	if p.MinEaseFactor <= 0 || p.MaxEaseFactor <= 0 || p.MinEaseFactor > p.MaxEaseFactor {
		return ErrEaseBoundsInvalid
	}

	if p.HardIntervalMultiplier <= 0 || p.EasyIntervalBonus <= 0 {
		return ErrIntervalParamsInvalid
	}

	if p.FirstIntervalDays < 1 || p.SecondIntervalDays < 1 || p.AgainIntervalDays < 1 {
		return ErrIntervalParamsInvalid
	}

	if p.EasyMinIntervalDays < 1 || p.MaxIntervalDays < 1 {
		return ErrIntervalParamsInvalid
	}

	for _, g := range []domain.Grade{domain.GradeAgain, domain.GradeHard, domain.GradeGood, domain.GradeEasy} {
		if _, ok := p.EaseFactorAdjustment[g]; !ok {
			return ErrIntervalParamsInvalid
		}
	}

	return nil
}
