package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tierZero = "tier0"
	tierOne  = "tier1"

	pinLength = 4
)

// Service manages identity lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a new Tier0 user and stores a hashed PIN.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	if !validPIN(reg.PIN) {
		return User{}, ErrPINFormat
	}
	if strings.TrimSpace(reg.Phone) == "" {
		return User{}, errors.New("phone is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.PIN), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Phone:        reg.Phone,
		Tier:         tierZero,
		PINHash:      hash,
		FirstName:    reg.FirstName,
		MiddleName:   reg.MiddleName,
		LastName:     reg.LastName,
		Suffix:       reg.Suffix,
		Birthdate:    reg.Birthdate,
		Gender:       reg.Gender,
		Nationality:  reg.Nationality,
		Address:      reg.Address,
		ProfileImage: reg.ProfileImage,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies the phone and PIN and records the login time.
// Unknown phones and wrong PINs both yield ErrInvalidPIN.
func (s *Service) Authenticate(ctx context.Context, phone, pin string) (User, error) {
	user, err := s.repo.FindByPhone(ctx, phone)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidPIN
	}
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PINHash, []byte(pin)); err != nil {
		return User{}, ErrInvalidPIN
	}

	// A first successful login promotes the account to tier one.
	if user.Tier == tierZero {
		user.Tier = tierOne
	}
	at := s.now().UTC()
	if err := s.repo.TouchLogin(ctx, user.ID, at, user.Tier); err != nil {
		return User{}, err
	}
	user.LastLogin = &at

	return user, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func validPIN(pin string) bool {
	if len(pin) != pinLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
