package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lora-lending/lora/internal/metrics"
)

var (
	// ErrInsufficientFunds occurs when the source account lacks available balance
	// to cover a requested posting.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the provided client transaction identifier
	// already exists and therefore the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountNotFound is returned for postings or lookups on unknown account codes.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount is returned for zero or negative postings.
	ErrInvalidAmount = errors.New("amount must be positive")
)

const (
	// KindDisbursement moves loan principal from the lending pool to a wallet.
	KindDisbursement = "disbursement"
	// KindRepayment moves an installment from a wallet back to the lending pool.
	KindRepayment = "repayment"
	// KindCardTopUp credits a wallet from a card payment held in suspense.
	KindCardTopUp = "card_top_up"

	// StatusCompleted marks a posted transaction.
	StatusCompleted = "completed"

	// LendingPoolAccountCode is the house account loans are disbursed from.
	LendingPoolAccountCode = "pool:lending"
	// CardSuspenseAccountCode is the ledger account used to park card transactions pre-settlement.
	CardSuspenseAccountCode = "suspense:card"

	defaultHistoryLimit = 20
)

// TransactionResult captures the outcome of a ledger posting.
type TransactionResult struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}

// Entry is one side of a posting as seen from a single account. Amount is
// negative for debits.
type Entry struct {
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Reference     string    `json:"reference"`
	Counterparty  string    `json:"counterparty"`
	Amount        int64     `json:"amount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
type Ledger interface {
	EnsureAccount(ctx context.Context, code string) error
	Balance(ctx context.Context, code string) (int64, error)
	Transfer(ctx context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (TransactionResult, error)
	History(ctx context.Context, code string, limit int) ([]Entry, error)
}

// HouseAccounts are created at startup by every backend user.
func HouseAccounts() []string {
	return []string{LendingPoolAccountCode, CardSuspenseAccountCode}
}

// mayOverdraw reports whether an account is allowed to go negative. House
// accounts mirror money that lives outside the ledger.
func mayOverdraw(code string) bool {
	return strings.HasPrefix(code, "pool:") || strings.HasPrefix(code, "suspense:")
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}

func observe(kind string, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrDuplicateTransaction):
		status = "duplicate"
	case errors.Is(err, ErrInsufficientFunds):
		status = "insufficient_funds"
	case err != nil:
		status = "error"
	}
	metrics.LedgerPostings.WithLabelValues(kind, status).Inc()
}
