package srs

import (
	"math"

	"github.com/pholn/mnemo/internal/domain"
)

// nextEaseFactor applies the grade's ease delta and clamps the result to
// the configured bounds. Clamping happens on every call, not only on
// failure, so a long run of Easy grades converges on the ceiling and a long
// run of Again grades converges on the floor.
func nextEaseFactor(current float64, grade domain.Grade, params Params) float64 {
	ease := current + params.EaseFactorAdjustment[grade]
	if ease < params.MinEaseFactor {
		ease = params.MinEaseFactor
	}
	if ease > params.MaxEaseFactor {
		ease = params.MaxEaseFactor
	}
	return ease
}

// goodInterval returns the Good-path interval for a record about to move
// from prev's repetition count to the next one: fixed steps for the first
// two successful reviews, then geometric growth by the ease factor.
func goodInterval(prev *domain.Progress, ease float64, params Params) int {
	switch prev.Repetition + 1 {
	case 1:
		return params.FirstIntervalDays
	case 2:
		return params.SecondIntervalDays
	default:
		return int(math.Round(float64(prev.IntervalDays) * ease))
	}
}

// nextInterval computes the new interval in days. ease must already be the
// post-adjustment ease factor for this review.
func nextInterval(prev *domain.Progress, grade domain.Grade, ease float64, params Params) int {
	var days int

	switch grade {
	case domain.GradeAgain:
		days = params.AgainIntervalDays

	case domain.GradeHard:
		days = int(math.Round(float64(prev.IntervalDays) * params.HardIntervalMultiplier))
		if days <= prev.IntervalDays {
			days = prev.IntervalDays + 1
		}

	case domain.GradeGood:
		days = goodInterval(prev, ease, params)

	case domain.GradeEasy:
		days = int(math.Round(float64(goodInterval(prev, ease, params)) * params.EasyIntervalBonus))
		if days < params.EasyMinIntervalDays {
			days = params.EasyMinIntervalDays
		}
	}

	if days > params.MaxIntervalDays {
		days = params.MaxIntervalDays
	}
	if days < 1 {
		days = 1
	}

	return days
}
