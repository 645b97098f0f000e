package loans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/notification"
	"github.com/lora-lending/lora/internal/wallet"
)

// Quote previews the cost of an application without booking it.
type Quote struct {
	Principal       int64         `json:"principal"`
	Interest        int64         `json:"interest"`
	Total           int64         `json:"total"`
	RateBasisPoints int           `json:"rate_basis_points"`
	DurationMonths  int           `json:"duration_months"`
	MonthlyPayment  int64         `json:"monthly_payment"`
	Installments    []Installment `json:"installments"`
}

// Service books loans, disburses them through the ledger and tracks repayments.
type Service struct {
	repo     Repository
	ledger   ledger.Ledger
	wallets  *wallet.Service
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the loan service.
func NewService(repo Repository, led ledger.Ledger, wallets *wallet.Service, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		ledger:   led,
		wallets:  wallets,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Quote validates app and computes its schedule as of now.
func (s *Service) Quote(app Application) (Quote, error) {
	if err := app.Validate(); err != nil {
		return Quote{}, err
	}
	interest := FlatInterest(app.Amount, AnnualRateBasisPoints, app.DurationMonths)
	total := app.Amount + interest
	schedule := Schedule(total, app.DurationMonths, s.now())
	return Quote{
		Principal:       app.Amount,
		Interest:        interest,
		Total:           total,
		RateBasisPoints: AnnualRateBasisPoints,
		DurationMonths:  app.DurationMonths,
		MonthlyPayment:  schedule[0].Amount,
		Installments:    schedule,
	}, nil
}

// Apply books a loan for borrowerID and disburses the principal into the
// borrower's wallet. A failed disbursement leaves the loan cancelled.
func (s *Service) Apply(ctx context.Context, borrowerID string, app Application) (Loan, error) {
	quote, err := s.Quote(app)
	if err != nil {
		return Loan{}, err
	}
	w, err := s.wallets.EnsureForOwner(ctx, borrowerID)
	if err != nil {
		return Loan{}, err
	}

	loan := Loan{
		ID:              uuid.NewString(),
		BorrowerID:      borrowerID,
		WalletID:        w.ID,
		Principal:       quote.Principal,
		Interest:        quote.Interest,
		Total:           quote.Total,
		RateBasisPoints: quote.RateBasisPoints,
		Purpose:         app.Purpose,
		DurationMonths:  app.DurationMonths,
		Employment:      app.Employment,
		MonthlyIncome:   app.MonthlyIncome,
		Status:          StatusActive,
		CreatedAt:       s.now(),
		Installments:    quote.Installments,
	}
	if err := s.repo.Create(ctx, loan); err != nil {
		return Loan{}, err
	}

	res, err := s.ledger.Transfer(ctx, ledger.LendingPoolAccountCode, w.AccountCode, ledger.KindDisbursement, loan.ID, loan.Principal)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		if serr := s.repo.SetStatus(ctx, loan.ID, StatusCancelled); serr != nil {
			s.logger.Error("cancel undisbursed loan", "loan_id", loan.ID, "error", serr)
		}
		return Loan{}, fmt.Errorf("disburse loan: %w", err)
	}
	if err := s.repo.SetDisbursement(ctx, loan.ID, res.TransactionID); err != nil {
		return Loan{}, err
	}
	loan.DisbursementTxID = res.TransactionID

	s.logger.Info("loan disbursed", "loan_id", loan.ID, "borrower_id", borrowerID, "principal", loan.Principal)
	s.notify(ctx, notification.KindLoanDisbursed, borrowerID,
		fmt.Sprintf("Your loan of %s has been credited to your wallet.", FormatPeso(loan.Principal)))
	return loan, nil
}

// List returns the borrower's loans, newest first.
func (s *Service) List(ctx context.Context, borrowerID string) ([]Loan, error) {
	return s.repo.ListByBorrower(ctx, borrowerID)
}

// Get returns a loan only if borrowerID owns it.
func (s *Service) Get(ctx context.Context, borrowerID, loanID string) (Loan, error) {
	loan, err := s.repo.Get(ctx, loanID)
	if err != nil {
		return Loan{}, err
	}
	if loan.BorrowerID != borrowerID {
		return Loan{}, ErrNotBorrower
	}
	return loan, nil
}

// Active returns the borrower's active loan or ErrLoanNotFound.
func (s *Service) Active(ctx context.Context, borrowerID string) (Loan, error) {
	return s.repo.ActiveByBorrower(ctx, borrowerID)
}

// RecordRepayment marks installment number as paid by ledger transaction txID.
func (s *Service) RecordRepayment(ctx context.Context, loanID string, number int, txID string) (Loan, error) {
	loan, err := s.repo.MarkInstallmentPaid(ctx, loanID, number, txID, s.now())
	if err != nil {
		return Loan{}, err
	}
	if loan.Status == StatusCompleted {
		s.logger.Info("loan completed", "loan_id", loan.ID, "borrower_id", loan.BorrowerID)
	}
	return loan, nil
}

func (s *Service) notify(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: destination, Body: body}); err != nil {
		s.logger.Warn("notification failed", "kind", kind, "error", err)
	}
}

// FormatPeso renders centavos as "PHP 1,234.56".
func FormatPeso(centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	whole := fmt.Sprintf("%d", centavos/100)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%sPHP %s.%02d", sign, whole, centavos%100)
}
