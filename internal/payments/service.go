package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/loans"
	"github.com/lora-lending/lora/internal/notification"
	"github.com/lora-lending/lora/internal/wallet"
)

// ErrNothingDue is returned when every installment of the loan is settled.
var ErrNothingDue = errors.New("no installment due")

// Service moves installment payments from borrower wallets back to the lending pool.
type Service struct {
	ledger   ledger.Ledger
	wallets  *wallet.Service
	loans    *loans.Service
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(led ledger.Ledger, wallets *wallet.Service, loanSvc *loans.Service, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: led, wallets: wallets, loans: loanSvc, notifier: notifier, logger: logger}
}

// RepayInput identifies the loan and the paying borrower.
type RepayInput struct {
	LoanID      string
	RequestorID string
}

// RepayResult describes the ledger outcome of an installment payment.
type RepayResult struct {
	TransactionID     string    `json:"transaction_id"`
	LoanID            string    `json:"loan_id"`
	InstallmentNumber int       `json:"installment_number"`
	Amount            int64     `json:"amount"`
	WalletBalance     int64     `json:"wallet_balance"`
	Remaining         int64     `json:"remaining"`
	LoanStatus        string    `json:"loan_status"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Repay pays the earliest pending installment of the requestor's loan from
// the wallet the loan was disbursed into. The ledger key is loanID:number so
// a replayed payment never debits twice.
func (s *Service) Repay(ctx context.Context, input RepayInput) (RepayResult, error) {
	loan, err := s.loans.Get(ctx, input.RequestorID, input.LoanID)
	if err != nil {
		return RepayResult{}, err
	}
	if loan.Status != loans.StatusActive {
		return RepayResult{}, loans.ErrLoanClosed
	}
	due, ok := loan.NextInstallment()
	if !ok {
		return RepayResult{}, ErrNothingDue
	}
	w, err := s.wallets.Owned(ctx, loan.WalletID, input.RequestorID)
	if err != nil {
		return RepayResult{}, err
	}

	key := fmt.Sprintf("%s:%d", loan.ID, due.Number)
	res, err := s.ledger.Transfer(ctx, w.AccountCode, ledger.LendingPoolAccountCode, ledger.KindRepayment, key, due.Amount)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		return RepayResult{}, err
	}
	if errors.Is(err, ledger.ErrDuplicateTransaction) {
		s.logger.Warn("repayment already posted", "loan_id", loan.ID, "installment", due.Number)
	}

	updated, err := s.loans.RecordRepayment(ctx, loan.ID, due.Number, res.TransactionID)
	switch {
	case errors.Is(err, loans.ErrInstallmentPaid):
		updated = loan
	case err != nil:
		return RepayResult{}, err
	}

	if s.notifier != nil {
		body := fmt.Sprintf("We received %s for installment %d of %d.",
			loans.FormatPeso(due.Amount), due.Number, len(loan.Installments))
		if updated.Status == loans.StatusCompleted {
			body += " Your loan is fully paid."
		}
		if nerr := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindRepaymentReceived,
			Destination: input.RequestorID,
			Body:        body,
		}); nerr != nil {
			s.logger.Warn("notification failed", "kind", notification.KindRepaymentReceived, "error", nerr)
		}
	}

	return RepayResult{
		TransactionID:     res.TransactionID,
		LoanID:            loan.ID,
		InstallmentNumber: due.Number,
		Amount:            due.Amount,
		WalletBalance:     res.FromBalance,
		Remaining:         updated.Remaining(),
		LoanStatus:        updated.Status,
		CompletedAt:       time.Now().UTC(),
	}, nil
}
