package routes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lora-lending/lora/internal/identity"
	"github.com/lora-lending/lora/internal/onboarding"
	"github.com/lora-lending/lora/internal/wallet"
)

// RegisterIdentityRoutes wires the profile endpoint.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Get("/me", h.Me)
}

// accountRegistrar creates the user behind a completed onboarding wizard
// and auto-provisions a PHP wallet for it.
type accountRegistrar struct {
	ids     *identity.Service
	wallets *wallet.Service
	logger  *slog.Logger
	now     func() time.Time
}

func newAccountRegistrar(ids *identity.Service, wallets *wallet.Service, logger *slog.Logger) *accountRegistrar {
	return &accountRegistrar{ids: ids, wallets: wallets, logger: logger, now: time.Now}
}

func (a *accountRegistrar) Register(ctx context.Context, p onboarding.Profile) (string, error) {
	birthdate, err := onboarding.ParseBirthdate(p.Details.Birthdate, a.now())
	if err != nil {
		return "", err
	}
	user, err := a.ids.Register(ctx, identity.Registration{
		Phone:       p.Phone,
		PIN:         p.PIN,
		FirstName:   p.Details.FirstName,
		MiddleName:  p.Details.MiddleName,
		LastName:    p.Details.LastName,
		Suffix:      p.Details.Suffix,
		Birthdate:   birthdate,
		Gender:      p.Details.Gender,
		Nationality: p.Details.Nationality,
		Address: identity.Address{
			Country:      p.Address.Country,
			Province:     p.Address.Province,
			Municipality: p.Address.Municipality,
			Barangay:     p.Address.Barangay,
			Street:       p.Address.Street,
		},
		ProfileImage: p.ProfileImage,
	})
	if errors.Is(err, identity.ErrPhoneTaken) {
		return "", onboarding.ErrPhoneTaken
	}
	if err != nil {
		return "", err
	}

	// The account stands even without a wallet; login, /wallet and loan
	// apply provision it on first use.
	w, err := a.wallets.EnsureForOwner(ctx, user.ID)
	if err != nil {
		a.logger.Error("provision wallet", slog.String("user_id", user.ID), slog.Any("error", err))
		return user.ID, nil
	}
	a.logger.Info("account registered",
		slog.String("user_id", user.ID),
		slog.String("phone", identity.DisplayPhone(user.Phone)),
		slog.String("wallet_id", w.ID),
	)
	return user.ID, nil
}
