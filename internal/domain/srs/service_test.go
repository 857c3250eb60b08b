package srs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholn/mnemo/internal/domain"
)

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("default params are valid", func(t *testing.T) {
		t.Parallel()

		svc, err := NewService(NewDefaultParams())
		require.NoError(t, err)
		require.NotNil(t, svc)
	})

	t.Run("inverted ease bounds rejected", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.MinEaseFactor = 3.5
		_, err := NewService(params)
		assert.ErrorIs(t, err, ErrEaseBoundsInvalid)
	})

	t.Run("zero interval step rejected", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.SecondIntervalDays = 0
		_, err := NewService(params)
		assert.ErrorIs(t, err, ErrIntervalParamsInvalid)
	})

	t.Run("missing grade adjustment rejected", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.EaseFactorAdjustment = map[domain.Grade]float64{
			domain.GradeAgain: -0.2,
		}
		_, err := NewService(params)
		assert.ErrorIs(t, err, ErrIntervalParamsInvalid)
	})
}

func TestAdvanceRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := NewDefaultService()

	t.Run("nil progress", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Advance(nil, domain.GradeGood, reviewTime)
		assert.ErrorIs(t, err, ErrNilProgress)
	})

	t.Run("unknown grade", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress(uuid.New(), uuid.New(), reviewTime)
		_, err := svc.Advance(p, domain.Grade("perfect"), reviewTime)
		assert.ErrorIs(t, err, domain.ErrInvalidGrade)
	})
}
