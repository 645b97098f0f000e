package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepAdjacency(t *testing.T) {
	steps := Steps()
	for i, s := range steps {
		next, hasNext := s.Next()
		prev, hasPrev := s.Prev()
		if i < len(steps)-1 {
			require.True(t, hasNext, "%s should have a successor", s)
			assert.Equal(t, steps[i+1], next)
		} else {
			assert.False(t, hasNext)
		}
		if i > 0 {
			require.True(t, hasPrev, "%s should have a predecessor", s)
			assert.Equal(t, steps[i-1], prev)
		} else {
			assert.False(t, hasPrev)
		}
	}
}

func TestCheckTransitionsRejectsJumps(t *testing.T) {
	for _, from := range Steps() {
		for _, to := range Steps() {
			next, _ := from.Next()
			prev, _ := from.Prev()
			if to == next {
				assert.NoError(t, CheckAdvance(from, to))
			} else {
				assert.ErrorIs(t, CheckAdvance(from, to), ErrIllegalTransition, "%s -> %s", from, to)
			}
			if to == prev {
				assert.NoError(t, CheckRetreat(from, to))
			} else {
				assert.ErrorIs(t, CheckRetreat(from, to), ErrIllegalTransition, "%s <- %s", to, from)
			}
		}
	}
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("address")
	require.NoError(t, err)
	assert.Equal(t, StepAddress, s)

	_, err = ParseStep("dashboard")
	assert.Error(t, err)
	assert.False(t, Step("").Valid())
}
