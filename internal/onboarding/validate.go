package onboarding

import (
	"strconv"
	"strings"
	"time"
)

const (
	// PhonePrefix is the only country code the product accepts.
	PhonePrefix = "+63"
	// PhoneLength is the prefix plus ten subscriber digits.
	PhoneLength = len(PhonePrefix) + phoneDigits
	// CodeLength is the number of MPIN digits.
	CodeLength = 6
	// PinLength is the number of login PIN digits.
	PinLength = 4

	phoneDigits  = 10
	minBirthYear = 1900
	birthdateLen = 8
)

// Registration is the form state of the registration step.
type Registration struct {
	Phone  string `json:"phone"`
	Agreed bool   `json:"agreed"`
}

// Details is the form state of the personal details step.
type Details struct {
	FirstName   string `json:"first_name"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name"`
	Suffix      string `json:"suffix"`
	Birthdate   string `json:"birthdate"`
	Gender      string `json:"gender"`
	Nationality string `json:"nationality"`
	Agreed      bool   `json:"agreed"`
}

// Address is the form state of the address step.
type Address struct {
	Country      string `json:"country"`
	Province     string `json:"province"`
	Municipality string `json:"municipality"`
	Barangay     string `json:"barangay"`
	Street       string `json:"street"`
	Agreed       bool   `json:"agreed"`
}

// DigitsOnly drops every rune that is not an ASCII digit.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizePhone rewrites a raw phone edit so it always carries the fixed
// prefix followed by at most ten digits. Text typed after a foreign country
// code or without any prefix keeps its digits behind the forced prefix.
func NormalizePhone(edit string) string {
	rest := strings.TrimPrefix(edit, PhonePrefix)
	digits := DigitsOnly(rest)
	if len(digits) > phoneDigits {
		digits = digits[:phoneDigits]
	}
	return PhonePrefix + digits
}

// ValidateRegistration checks the phone shape and the terms agreement.
func ValidateRegistration(r Registration) error {
	if len(r.Phone) != PhoneLength || !strings.HasPrefix(r.Phone, PhonePrefix) {
		return ErrInvalidPhone
	}
	if DigitsOnly(r.Phone[len(PhonePrefix):]) != r.Phone[len(PhonePrefix):] {
		return ErrInvalidPhone
	}
	if !r.Agreed {
		return ErrTermsNotAccepted
	}
	return nil
}

// ValidateCode requires a complete six digit code equal to expected.
func ValidateCode(code, expected string) error {
	if len(code) != CodeLength || DigitsOnly(code) != code {
		return ErrCodeIncomplete
	}
	if code != expected {
		return ErrInvalidCode
	}
	return nil
}

// FormatBirthdate turns a raw edit into the MM/DD/YYYY mask, keeping at most
// eight digits.
func FormatBirthdate(edit string) string {
	digits := DigitsOnly(edit)
	if len(digits) > birthdateLen {
		digits = digits[:birthdateLen]
	}
	var b strings.Builder
	for i, r := range digits {
		if i == 2 || i == 4 {
			b.WriteByte('/')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateBirthdate parses MM/DD/YYYY and checks it names a real calendar
// date between 1900 and the current year of now.
func ValidateBirthdate(value string, now time.Time) error {
	_, err := parseBirthdate(value, now.Year())
	return err
}

// ParseBirthdate returns the calendar date of a valid MM/DD/YYYY string.
func ParseBirthdate(value string, now time.Time) (time.Time, error) {
	return parseBirthdate(value, now.Year())
}

func parseBirthdate(value string, maxYear int) (time.Time, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidBirthdate
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if p == "" || DigitsOnly(p) != p {
			return time.Time{}, ErrInvalidBirthdate
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, ErrInvalidBirthdate
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 {
		return time.Time{}, ErrInvalidBirthdate
	}
	if year < minBirthYear || year > maxYear {
		return time.Time{}, ErrInvalidBirthdate
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, ErrInvalidBirthdate
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateDetails checks the required personal fields, the birthdate and
// the confirmation flag, in that order.
func ValidateDetails(d Details, now time.Time) error {
	if blank(d.FirstName) || blank(d.LastName) || blank(d.Birthdate) {
		return ErrDetailsRequired
	}
	if err := ValidateBirthdate(d.Birthdate, now); err != nil {
		return err
	}
	if !d.Agreed {
		return ErrDetailsNotConfirmed
	}
	return nil
}

// ValidateAddress requires all five address fields and the confirmation flag.
func ValidateAddress(a Address) error {
	if blank(a.Country) || blank(a.Province) || blank(a.Municipality) || blank(a.Barangay) || blank(a.Street) {
		return ErrAddressRequired
	}
	if !a.Agreed {
		return ErrAddressNotConfirmed
	}
	return nil
}

// ValidatePinPair requires two complete four digit PINs that match exactly.
func ValidatePinPair(pin, confirm string) error {
	if len(pin) != PinLength || len(confirm) != PinLength {
		return ErrPinIncomplete
	}
	if DigitsOnly(pin) != pin || DigitsOnly(confirm) != confirm {
		return ErrPinIncomplete
	}
	if pin != confirm {
		return ErrPinMismatch
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
