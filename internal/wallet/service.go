package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lora-lending/lora/internal/ledger"
)

const (
	statusActive = "active"
)

// Service exposes wallet operations backed by the ledger.
type Service struct {
	repo   Repository
	ledger ledger.Ledger
}

// NewService builds a wallet service instance.
func NewService(repo Repository, ledger ledger.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID  string
	Currency string
}

// Create provisions a wallet and associated ledger account. The account is
// keyed by owner so a retry after a failed insert reuses it.
func (s *Service) Create(ctx context.Context, input CreateInput) (Wallet, error) {
	if _, err := uuid.Parse(input.OwnerID); err != nil {
		return Wallet{}, fmt.Errorf("owner id: %w", err)
	}
	walletID := uuid.New().String()
	accountCode := AccountCodeFor(input.OwnerID)

	if err := s.ledger.EnsureAccount(ctx, accountCode); err != nil {
		return Wallet{}, err
	}

	currency := input.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	wallet := Wallet{
		ID:          walletID,
		OwnerID:     input.OwnerID,
		AccountCode: accountCode,
		Currency:    currency,
		Status:      statusActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// EnsureForOwner returns the owner's wallet, provisioning it first when the
// owner has none yet.
func (s *Service) EnsureForOwner(ctx context.Context, ownerID string) (Wallet, error) {
	w, err := s.repo.GetByOwner(ctx, ownerID)
	if err == nil || !errors.Is(err, ErrWalletNotFound) {
		return w, err
	}
	w, err = s.Create(ctx, CreateInput{OwnerID: ownerID, Currency: DefaultCurrency})
	if errors.Is(err, ErrWalletExists) {
		return s.repo.GetByOwner(ctx, ownerID)
	}
	return w, err
}

// AccountCodeFor returns the ledger account backing ownerID's wallet.
func AccountCodeFor(ownerID string) string {
	return fmt.Sprintf("wallet:%s", ownerID)
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (Wallet, error) {
	return s.repo.Get(ctx, id)
}

// GetByOwner retrieves the wallet of a user.
func (s *Service) GetByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// Owned returns the wallet only if it belongs to ownerID.
func (s *Service) Owned(ctx context.Context, id, ownerID string) (Wallet, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	if w.OwnerID != ownerID {
		return Wallet{}, ErrNotOwner
	}
	return w, nil
}

// Balance returns the ledger balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.ledger.Balance(ctx, wallet.AccountCode)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: wallet.ID, Amount: amount, Currency: wallet.Currency, AsOf: time.Now().UTC()}, nil
}

// History lists the most recent ledger entries of the wallet, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]ledger.Entry, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, wallet.AccountCode, limit)
}
