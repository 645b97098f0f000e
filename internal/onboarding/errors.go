package onboarding

import "errors"

// ValidationError is a user-correctable input failure. Message is shown to
// the user verbatim; Reason is a stable machine-readable key.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

var (
	ErrInvalidPhone        = invalid("invalid_phone", "Please enter a valid Philippine mobile number (+63XXXXXXXXXX)")
	ErrTermsNotAccepted    = invalid("terms_not_accepted", "Please agree to the terms")
	ErrCodeIncomplete      = invalid("code_incomplete", "Please enter 6-digit MPIN")
	ErrInvalidCode         = invalid("invalid_code", "Invalid MPIN. Please try again")
	ErrResendUnavailable   = invalid("resend_unavailable", "Resend is available once the countdown reaches zero")
	ErrDetailsRequired     = invalid("details_required", "Please fill in all required fields")
	ErrInvalidBirthdate    = invalid("invalid_birthdate", "Please enter a valid birthdate (MM/DD/YYYY)")
	ErrDetailsNotConfirmed = invalid("details_not_confirmed", "Please confirm the information is true and complete")
	ErrAddressRequired     = invalid("address_required", "Please fill in all address fields")
	ErrAddressNotConfirmed = invalid("address_not_confirmed", "Please confirm the address information is true")
	ErrPinIncomplete       = invalid("pin_incomplete", "Please complete both PIN fields")
	ErrPinMismatch         = invalid("pin_mismatch", "PINs do not match")
	ErrPhoneTaken          = invalid("phone_taken", "This mobile number is already registered")
)

var (
	// ErrIllegalTransition is returned for a step change missing from the transition table.
	ErrIllegalTransition = errors.New("transition not allowed")
	// ErrStepMismatch is returned when an action belongs to a step other than the current one.
	ErrStepMismatch = errors.New("action not available at the current step")
	// ErrCompleted is returned for any action on a wizard that already handed off to the dashboard.
	ErrCompleted = errors.New("onboarding already completed")
	// ErrAbandoned is returned for any action after the user backed out to the welcome screen.
	ErrAbandoned = errors.New("onboarding was abandoned")
	// ErrSlotOutOfRange is returned for a digit index outside the field.
	ErrSlotOutOfRange = errors.New("digit index out of range")
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("onboarding session not found")
)
