package wallet

import (
	"errors"
	"time"
)

var (
	// ErrWalletNotFound is returned when no wallet matches the lookup.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrWalletExists is returned when the owner already holds a wallet.
	ErrWalletExists = errors.New("wallet already exists")
	// ErrNotOwner is returned when a caller touches someone else's wallet.
	ErrNotOwner = errors.New("wallet belongs to another user")
)

// DefaultCurrency is the only currency loans are issued in.
const DefaultCurrency = "PHP"

// Wallet represents a stored value account backed by the ledger.
type Wallet struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	AccountCode string    `json:"account_code"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Balance encapsulates available funds for a wallet, in centavos.
type Balance struct {
	WalletID string    `json:"wallet_id"`
	Amount   int64     `json:"balance"`
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"as_of"`
}
