package onboarding

import "strings"

// DigitField is a fixed row of single-digit boxes with a focus cursor, as
// used for the MPIN and the login PIN.
type DigitField struct {
	slots []string
	focus int
}

// NewDigitField returns an empty field with n boxes and focus on the first.
func NewDigitField(n int) *DigitField {
	return &DigitField{slots: make([]string, n)}
}

// Set writes the digits of text into box index and returns the new focus.
// Non-digits are dropped; a box keeps only the last digit typed into it.
// Entering a digit moves focus to the next box.
func (f *DigitField) Set(index int, text string) (int, error) {
	if index < 0 || index >= len(f.slots) {
		return f.focus, ErrSlotOutOfRange
	}
	digits := DigitsOnly(text)
	if digits == "" {
		f.slots[index] = ""
		f.focus = index
		return f.focus, nil
	}
	f.slots[index] = digits[len(digits)-1:]
	f.focus = index
	if index < len(f.slots)-1 {
		f.focus = index + 1
	}
	return f.focus, nil
}

// Backspace clears box index, or moves focus to the previous box when it
// is already empty.
func (f *DigitField) Backspace(index int) (int, error) {
	if index < 0 || index >= len(f.slots) {
		return f.focus, ErrSlotOutOfRange
	}
	f.focus = index
	if f.slots[index] != "" {
		f.slots[index] = ""
		return f.focus, nil
	}
	if index > 0 {
		f.focus = index - 1
	}
	return f.focus, nil
}

// Value joins the filled boxes.
func (f *DigitField) Value() string {
	return strings.Join(f.slots, "")
}

// Complete reports whether every box holds a digit.
func (f *DigitField) Complete() bool {
	for _, s := range f.slots {
		if s == "" {
			return false
		}
	}
	return true
}

// Filled returns which boxes hold a digit without exposing the digits.
func (f *DigitField) Filled() []bool {
	out := make([]bool, len(f.slots))
	for i, s := range f.slots {
		out[i] = s != ""
	}
	return out
}

// Slots returns a copy of the box contents.
func (f *DigitField) Slots() []string {
	out := make([]string, len(f.slots))
	copy(out, f.slots)
	return out
}

// Focus returns the index of the box that should hold input focus.
func (f *DigitField) Focus() int { return f.focus }

// Reset empties all boxes and returns focus to the first.
func (f *DigitField) Reset() {
	for i := range f.slots {
		f.slots[i] = ""
	}
	f.focus = 0
}
