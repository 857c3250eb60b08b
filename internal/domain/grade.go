package domain

import (
	"fmt"
	"strings"
)

// Grade is a learner's self-reported recall quality for one card, from
// complete failure (Again) to effortless recall (Easy).
type Grade string

// The four possible grades, ordered from worst to best recall.
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// ParseGrade converts raw input into a Grade. Input is case-insensitive and
// surrounding whitespace is ignored. Returns ErrInvalidGrade wrapped with
// the offending value for unknown input.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// IsValid reports whether g is one of the four known grades.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	}
	return false
}

// Known reports whether the grade counts as a successful recall for
// accuracy purposes. Again and Hard mean the card is not yet known.
func (g Grade) Known() bool {
	return g == GradeGood || g == GradeEasy
}

// String returns the grade's wire form.
func (g Grade) String() string {
	return string(g)
}
