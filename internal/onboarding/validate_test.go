package onboarding

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty resets to prefix", in: "", want: "+63"},
		{name: "prefix only", in: "+63", want: "+63"},
		{name: "complete number", in: "+639171234567", want: "+639171234567"},
		{name: "truncates extra digits", in: "+6391712345678899", want: "+639171234567"},
		{name: "strips non digits after prefix", in: "+63 917-123-4567", want: "+639171234567"},
		{name: "bare digits get prefix", in: "9171234567", want: "+639171234567"},
		{name: "foreign code forced to prefix", in: "+1 555 0100", want: "+6315550100"},
		{name: "letters only", in: "abc", want: "+63"},
		{name: "local trunk zero kept as digit", in: "09171234567", want: "+630917123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}

func TestNormalizePhoneAlwaysPrefixedAndBounded(t *testing.T) {
	inputs := []string{
		"", "+", "+6", "+63", "+63+63+63", "639", "++++", "０９１７", "+639999999999999999",
		strings.Repeat("9", 100), "+44 20 7946 0958", "\x00\xff", "+63abc123",
	}
	for _, in := range inputs {
		got := NormalizePhone(in)
		assert.True(t, strings.HasPrefix(got, PhonePrefix), "input %q gave %q", in, got)
		assert.LessOrEqual(t, len(got), PhoneLength, "input %q gave %q", in, got)
		assert.Equal(t, got, NormalizePhone(got), "normalizing twice must be stable for %q", in)
	}
}

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name string
		in   Registration
		want error
	}{
		{name: "valid", in: Registration{Phone: "+639171234567", Agreed: true}},
		{name: "too short", in: Registration{Phone: "+63917123456", Agreed: true}, want: ErrInvalidPhone},
		{name: "too long", in: Registration{Phone: "+6391712345678", Agreed: true}, want: ErrInvalidPhone},
		{name: "wrong prefix", in: Registration{Phone: "+449171234567", Agreed: true}, want: ErrInvalidPhone},
		{name: "non digits", in: Registration{Phone: "+63917123456x", Agreed: true}, want: ErrInvalidPhone},
		{name: "terms not agreed", in: Registration{Phone: "+639171234567"}, want: ErrTermsNotAccepted},
		{name: "phone checked before terms", in: Registration{Phone: "+63"}, want: ErrInvalidPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegistration(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("123456", "123456"))
	assert.ErrorIs(t, ValidateCode("12345", "123456"), ErrCodeIncomplete)
	assert.ErrorIs(t, ValidateCode("12345a", "123456"), ErrCodeIncomplete)
	assert.ErrorIs(t, ValidateCode("654321", "123456"), ErrInvalidCode)
	assert.ErrorIs(t, ValidateCode("000000", "123456"), ErrInvalidCode)
}

func TestValidateBirthdate(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"02/29/2024", true},
		{"02/30/2024", false},
		{"02/29/2023", false},
		{"13/01/2024", false},
		{"00/10/2000", false},
		{"04/31/2000", false},
		{"12/31/1900", true},
		{"12/31/1899", false},
		{"01/01/2026", true},
		{"01/01/2027", false},
		{"1/5/1990", true},
		{"01/00/1990", false},
		{"01-05-1990", false},
		{"01/05", false},
		{"ab/cd/efgh", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateBirthdate(tt.in, testNow)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBirthdate)
			}
		})
	}
}

func TestParseBirthdate(t *testing.T) {
	got, err := ParseBirthdate("02/29/2024", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatBirthdate(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"0":            "0",
		"02":           "02",
		"022":          "02/2",
		"0229":         "02/29",
		"02292":        "02/29/2",
		"02292024":     "02/29/2024",
		"0229202499":   "02/29/2024",
		"02/29/2024":   "02/29/2024",
		"02-29-2024xx": "02/29/2024",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatBirthdate(in), "input %q", in)
	}
}

func TestValidateDetails(t *testing.T) {
	valid := Details{FirstName: "Maria", LastName: "Santos", Birthdate: "05/14/1992", Agreed: true}
	assert.NoError(t, ValidateDetails(valid, testNow))

	missing := valid
	missing.LastName = "  "
	assert.ErrorIs(t, ValidateDetails(missing, testNow), ErrDetailsRequired)

	badDate := valid
	badDate.Birthdate = "02/30/2024"
	assert.ErrorIs(t, ValidateDetails(badDate, testNow), ErrInvalidBirthdate)

	unconfirmed := valid
	unconfirmed.Agreed = false
	assert.ErrorIs(t, ValidateDetails(unconfirmed, testNow), ErrDetailsNotConfirmed)
}

func TestValidateAddress(t *testing.T) {
	valid := Address{Country: "Philippines", Province: "Cebu City", Municipality: "Cebu City", Barangay: "Pasil", Street: "12 Rizal St", Agreed: true}
	assert.NoError(t, ValidateAddress(valid))

	for _, clear := range []func(*Address){
		func(a *Address) { a.Country = "" },
		func(a *Address) { a.Province = "" },
		func(a *Address) { a.Municipality = "" },
		func(a *Address) { a.Barangay = "" },
		func(a *Address) { a.Street = "" },
	} {
		a := valid
		clear(&a)
		assert.ErrorIs(t, ValidateAddress(a), ErrAddressRequired)
	}

	unconfirmed := valid
	unconfirmed.Agreed = false
	assert.ErrorIs(t, ValidateAddress(unconfirmed), ErrAddressNotConfirmed)
}

func TestValidatePinPair(t *testing.T) {
	assert.NoError(t, ValidatePinPair("1234", "1234"))
	assert.ErrorIs(t, ValidatePinPair("1234", "1243"), ErrPinMismatch)
	assert.ErrorIs(t, ValidatePinPair("123", "1234"), ErrPinIncomplete)
	assert.ErrorIs(t, ValidatePinPair("1234", ""), ErrPinIncomplete)
}

func TestValidationErrorsCarryMessages(t *testing.T) {
	var ve *ValidationError
	require.ErrorAs(t, error(ErrPinMismatch), &ve)
	assert.Equal(t, "pin_mismatch", ve.Reason)
	assert.Equal(t, "PINs do not match", ve.Error())
}
