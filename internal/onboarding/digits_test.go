package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitFieldFocusMovesForwardAndBack(t *testing.T) {
	f := NewDigitField(4)

	focus, err := f.Set(0, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, focus)

	focus, _ = f.Set(1, "2")
	assert.Equal(t, 2, focus)

	// backspace on an empty box walks back
	focus, _ = f.Backspace(2)
	assert.Equal(t, 1, focus)

	// backspace on a filled box clears it and stays
	focus, _ = f.Backspace(1)
	assert.Equal(t, 1, focus)
	assert.Equal(t, []string{"1", "", "", ""}, f.Slots())

	focus, _ = f.Backspace(0)
	assert.Equal(t, 0, focus)
	focus, _ = f.Backspace(0)
	assert.Equal(t, 0, focus)
	assert.Equal(t, "", f.Value())
}

func TestDigitFieldStripsNonDigits(t *testing.T) {
	f := NewDigitField(4)

	focus, err := f.Set(0, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, focus)
	assert.Equal(t, "", f.Value())

	_, _ = f.Set(0, "7x")
	_, _ = f.Set(1, "19")
	assert.Equal(t, "79", f.Value())
}

func TestDigitFieldLastBoxKeepsFocus(t *testing.T) {
	f := NewDigitField(2)
	_, _ = f.Set(0, "1")
	focus, _ := f.Set(1, "2")
	assert.Equal(t, 1, focus)
	assert.True(t, f.Complete())
	assert.Equal(t, []bool{true, true}, f.Filled())

	f.Reset()
	assert.False(t, f.Complete())
	assert.Equal(t, 0, f.Focus())
}

func TestDigitFieldRejectsOutOfRange(t *testing.T) {
	f := NewDigitField(6)
	_, err := f.Set(6, "1")
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
	_, err = f.Backspace(-1)
	assert.ErrorIs(t, err, ErrSlotOutOfRange)
}
