package dashboard

import (
	"context"
	"errors"

	"github.com/lora-lending/lora/internal/identity"
	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/loans"
	"github.com/lora-lending/lora/internal/notification"
	"github.com/lora-lending/lora/internal/wallet"
)

const recentTransactions = 5

// View is the home screen of a signed-in borrower.
type View struct {
	Profile            identity.Profile `json:"profile"`
	Wallet             *WalletView      `json:"wallet,omitempty"`
	ActiveLoan         *LoanView        `json:"active_loan,omitempty"`
	RecentTransactions []ledger.Entry   `json:"recent_transactions"`
	HasUnread          bool             `json:"has_unread"`
}

// WalletView is the wallet card.
type WalletView struct {
	ID       string `json:"id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// LoanView is the "My Loan" card with the next payment due.
type LoanView struct {
	ID             string             `json:"id"`
	Principal      int64              `json:"principal"`
	Total          int64              `json:"total"`
	Remaining      int64              `json:"remaining"`
	PaidCount      int                `json:"paid_count"`
	DurationMonths int                `json:"duration_months"`
	NextPayment    *loans.Installment `json:"next_payment,omitempty"`
}

// Service assembles the dashboard from the identity, wallet and loan services.
type Service struct {
	users   *identity.Service
	wallets *wallet.Service
	loans   *loans.Service
	inbox   *notification.Inbox
}

// NewService constructs a dashboard service. inbox may be nil.
func NewService(users *identity.Service, wallets *wallet.Service, loanSvc *loans.Service, inbox *notification.Inbox) *Service {
	return &Service{users: users, wallets: wallets, loans: loanSvc, inbox: inbox}
}

// Get builds the dashboard of userID. A missing wallet or loan leaves the
// matching card empty.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return View{}, err
	}
	view := View{Profile: user.Profile(), RecentTransactions: []ledger.Entry{}}

	w, err := s.wallets.GetByOwner(ctx, userID)
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
	case err != nil:
		return View{}, err
	default:
		bal, err := s.wallets.Balance(ctx, w.ID)
		if err != nil {
			return View{}, err
		}
		view.Wallet = &WalletView{ID: w.ID, Balance: bal.Amount, Currency: bal.Currency}
		entries, err := s.wallets.History(ctx, w.ID, recentTransactions)
		if err != nil {
			return View{}, err
		}
		view.RecentTransactions = append(view.RecentTransactions, entries...)
	}

	loan, err := s.loans.Active(ctx, userID)
	switch {
	case errors.Is(err, loans.ErrLoanNotFound):
	case err != nil:
		return View{}, err
	default:
		lv := &LoanView{
			ID:             loan.ID,
			Principal:      loan.Principal,
			Total:          loan.Total,
			Remaining:      loan.Remaining(),
			PaidCount:      loan.PaidCount(),
			DurationMonths: loan.DurationMonths,
		}
		if next, ok := loan.NextInstallment(); ok {
			lv.NextPayment = &next
		}
		view.ActiveLoan = lv
	}

	if s.inbox != nil {
		if view.HasUnread, err = s.inbox.HasUnread(ctx, userID); err != nil {
			return View{}, err
		}
	}
	return view, nil
}
