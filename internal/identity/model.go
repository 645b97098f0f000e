package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

var (
	// ErrPhoneTaken is returned when a phone number is already registered.
	ErrPhoneTaken = errors.New("phone already registered")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPIN is returned for a wrong PIN or an unknown phone.
	ErrInvalidPIN = errors.New("invalid PIN")
	// ErrPINFormat is returned when a PIN is not exactly four digits.
	ErrPINFormat = errors.New("PIN must be exactly 4 digits")
)

const defaultRegion = "PH"

// Address is where the borrower lives.
type Address struct {
	Country      string `json:"country"`
	Province     string `json:"province"`
	Municipality string `json:"municipality"`
	Barangay     string `json:"barangay"`
	Street       string `json:"street"`
}

// User represents a registered borrower.
type User struct {
	ID           string
	Phone        string
	Tier         string
	PINHash      []byte
	FirstName    string
	MiddleName   string
	LastName     string
	Suffix       string
	Birthdate    time.Time
	Gender       string
	Nationality  string
	Address      Address
	ProfileImage string
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// FullName joins the non-empty name parts.
func (u User) FullName() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{u.FirstName, u.MiddleName, u.LastName, u.Suffix} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayPhone renders the phone in international format, e.g.
// "+63 917 123 4567". Unparsable values are returned as stored.
func (u User) DisplayPhone() string {
	return DisplayPhone(u.Phone)
}

// DisplayPhone formats an E.164 phone number for display.
func DisplayPhone(phone string) string {
	num, err := phonenumbers.Parse(phone, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}

// Registration carries everything needed to create a user.
type Registration struct {
	Phone        string
	PIN          string
	FirstName    string
	MiddleName   string
	LastName     string
	Suffix       string
	Birthdate    time.Time
	Gender       string
	Nationality  string
	Address      Address
	ProfileImage string
}

// Profile is the public view of a user.
type Profile struct {
	ID           string     `json:"user_id"`
	Phone        string     `json:"phone"`
	DisplayPhone string     `json:"display_phone"`
	Tier         string     `json:"tier"`
	FullName     string     `json:"full_name"`
	FirstName    string     `json:"first_name"`
	MiddleName   string     `json:"middle_name,omitempty"`
	LastName     string     `json:"last_name"`
	Suffix       string     `json:"suffix,omitempty"`
	Birthdate    string     `json:"birthdate,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Nationality  string     `json:"nationality,omitempty"`
	Address      Address    `json:"address"`
	ProfileImage string     `json:"profile_image,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Profile returns the public view of u.
func (u User) Profile() Profile {
	p := Profile{
		ID:           u.ID,
		Phone:        u.Phone,
		DisplayPhone: u.DisplayPhone(),
		Tier:         u.Tier,
		FullName:     u.FullName(),
		FirstName:    u.FirstName,
		MiddleName:   u.MiddleName,
		LastName:     u.LastName,
		Suffix:       u.Suffix,
		Gender:       u.Gender,
		Nationality:  u.Nationality,
		Address:      u.Address,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
	if !u.Birthdate.IsZero() {
		p.Birthdate = u.Birthdate.Format("01/02/2006")
	}
	return p
}
