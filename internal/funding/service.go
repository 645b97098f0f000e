package funding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/loans"
	"github.com/lora-lending/lora/internal/notification"
	"github.com/lora-lending/lora/internal/wallet"
)

var (
	// ErrInvalidCard is returned for malformed card numbers.
	ErrInvalidCard = errors.New("card number must be 12 to 19 digits")
	// ErrDeclined is returned when the acquirer refuses the charge.
	ErrDeclined = errors.New("card charge declined")
)

// Service coordinates card top-ups using the ledger and acquirer connector.
type Service struct {
	ledger   ledger.Ledger
	wallets  *wallet.Service
	acquirer Acquirer
	notifier notification.Notifier
}

// NewService prepares a funding service ensuring the card suspense account exists.
func NewService(ctx context.Context, ledgerBackend ledger.Ledger, wallets *wallet.Service, acquirer Acquirer, notifier notification.Notifier) (*Service, error) {
	if wallets == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if acquirer == nil {
		acquirer = StaticAcquirer{}
	}
	if err := ledgerBackend.EnsureAccount(ctx, ledger.CardSuspenseAccountCode); err != nil {
		return nil, err
	}
	return &Service{ledger: ledgerBackend, wallets: wallets, acquirer: acquirer, notifier: notifier}, nil
}

// TopUpInput captures the required data for a card top-up.
type TopUpInput struct {
	WalletID    string
	RequestorID string
	Amount      int64
	ClientTxID  string
	CardNumber  string
	Expiry      string
	CVV         string
}

// TopUpResult represents the outcome of a card top-up.
type TopUpResult struct {
	TransactionID     string    `json:"transaction_id"`
	Status            string    `json:"status"`
	WalletBalance     int64     `json:"wallet_balance"`
	AcquirerReference string    `json:"acquirer_reference"`
	CompletedAt       time.Time `json:"completed_at"`
}

// TopUp authorizes the card and credits the wallet. A replayed client
// transaction id returns the original posting with ErrDuplicateTransaction.
func (s *Service) TopUp(ctx context.Context, input TopUpInput) (TopUpResult, error) {
	if err := validateCardNumber(input.CardNumber); err != nil {
		return TopUpResult{}, err
	}
	if input.Amount <= 0 {
		return TopUpResult{}, ledger.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}

	w, err := s.wallets.Owned(ctx, input.WalletID, input.RequestorID)
	if err != nil {
		return TopUpResult{}, err
	}

	decision, err := s.acquirer.AuthorizeTopUp(ctx, CardAuthorization{
		CardNumber: input.CardNumber,
		Expiry:     input.Expiry,
		CVV:        input.CVV,
		Amount:     input.Amount,
	})
	if err != nil {
		return TopUpResult{}, err
	}
	if decision.Status != "approved" {
		return TopUpResult{}, ErrDeclined
	}

	res, err := s.ledger.Transfer(ctx, ledger.CardSuspenseAccountCode, w.AccountCode, ledger.KindCardTopUp, input.ClientTxID, input.Amount)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		return TopUpResult{}, err
	}
	out := TopUpResult{
		TransactionID:     res.TransactionID,
		Status:            ledger.StatusCompleted,
		WalletBalance:     res.ToBalance,
		AcquirerReference: decision.Reference,
		CompletedAt:       time.Now().UTC(),
	}
	if err != nil {
		return out, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWalletTopUp,
			Destination: w.OwnerID,
			Body:        fmt.Sprintf("%s was added to your wallet.", loans.FormatPeso(input.Amount)),
		})
	}
	return out, nil
}

func validateCardNumber(card string) error {
	digits := strings.ReplaceAll(card, " ", "")
	if len(digits) < 12 || len(digits) > 19 {
		return ErrInvalidCard
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ErrInvalidCard
		}
	}
	return nil
}
