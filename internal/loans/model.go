package loans

import (
	"errors"
	"strings"
	"time"
)

const (
	// MinAmount and MaxAmount bound the principal, in centavos.
	MinAmount int64 = 1_000_00
	MaxAmount int64 = 150_000_00

	// AnnualRateBasisPoints is the flat yearly interest rate (12%).
	AnnualRateBasisPoints = 1_200

	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	InstallmentPending = "pending"
	InstallmentPaid    = "paid"

	EmploymentEmployed     = "employed"
	EmploymentSelfEmployed = "self-employed"
)

// Durations lists the repayment terms offered, in months.
var Durations = []int{3, 6, 9, 12}

var (
	ErrAmountOutOfRange   = errors.New("loan amount must be between PHP 1,000 and PHP 150,000")
	ErrPurposeRequired    = errors.New("loan purpose is required")
	ErrInvalidDuration    = errors.New("repayment duration must be 3, 6, 9 or 12 months")
	ErrInvalidEmployment  = errors.New("employment status must be employed or self-employed")
	ErrIncomeRequired     = errors.New("monthly income must be positive")
	ErrActiveLoanExists   = errors.New("borrower already has an active loan")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrNotBorrower        = errors.New("loan belongs to another borrower")
	ErrLoanClosed         = errors.New("loan is not active")
	ErrInstallmentPaid    = errors.New("installment already paid")
	ErrInstallmentMissing = errors.New("installment not found")
)

// Application is what the borrower submits. Money is in centavos.
type Application struct {
	Amount         int64  `json:"amount"`
	Purpose        string `json:"purpose"`
	DurationMonths int    `json:"duration_months"`
	Employment     string `json:"employment_status"`
	MonthlyIncome  int64  `json:"monthly_income"`
}

// Validate checks the application against the product rules.
func (a Application) Validate() error {
	if a.Amount < MinAmount || a.Amount > MaxAmount {
		return ErrAmountOutOfRange
	}
	if strings.TrimSpace(a.Purpose) == "" {
		return ErrPurposeRequired
	}
	if !validDuration(a.DurationMonths) {
		return ErrInvalidDuration
	}
	if a.Employment != EmploymentEmployed && a.Employment != EmploymentSelfEmployed {
		return ErrInvalidEmployment
	}
	if a.MonthlyIncome <= 0 {
		return ErrIncomeRequired
	}
	return nil
}

func validDuration(months int) bool {
	for _, d := range Durations {
		if d == months {
			return true
		}
	}
	return false
}

// Installment is one scheduled monthly payment.
type Installment struct {
	Number        int        `json:"number"`
	DueDate       time.Time  `json:"due_date"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
}

// Loan is a disbursed loan with its repayment schedule.
type Loan struct {
	ID               string        `json:"id"`
	BorrowerID       string        `json:"borrower_id"`
	WalletID         string        `json:"wallet_id"`
	Principal        int64         `json:"principal"`
	Interest         int64         `json:"interest"`
	Total            int64         `json:"total"`
	RateBasisPoints  int           `json:"rate_basis_points"`
	Purpose          string        `json:"purpose"`
	DurationMonths   int           `json:"duration_months"`
	Employment       string        `json:"employment_status"`
	MonthlyIncome    int64         `json:"monthly_income"`
	Status           string        `json:"status"`
	DisbursementTxID string        `json:"disbursement_tx_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	Installments     []Installment `json:"installments"`
}

// NextInstallment returns the earliest unpaid installment.
func (l Loan) NextInstallment() (Installment, bool) {
	for _, in := range l.Installments {
		if in.Status == InstallmentPending {
			return in, true
		}
	}
	return Installment{}, false
}

// Remaining sums the unpaid installments.
func (l Loan) Remaining() int64 {
	var sum int64
	for _, in := range l.Installments {
		if in.Status == InstallmentPending {
			sum += in.Amount
		}
	}
	return sum
}

// PaidCount returns how many installments are settled.
func (l Loan) PaidCount() int {
	n := 0
	for _, in := range l.Installments {
		if in.Status == InstallmentPaid {
			n++
		}
	}
	return n
}

// Summary is the list view of a loan.
type Summary struct {
	ID             string    `json:"id"`
	Principal      int64     `json:"principal"`
	Status         string    `json:"status"`
	Remaining      int64     `json:"remaining"`
	PaidCount      int       `json:"paid_count"`
	DurationMonths int       `json:"duration_months"`
	CreatedAt      time.Time `json:"created_at"`
}

// Summary returns the list view of l.
func (l Loan) Summary() Summary {
	return Summary{
		ID:             l.ID,
		Principal:      l.Principal,
		Status:         l.Status,
		Remaining:      l.Remaining(),
		PaidCount:      l.PaidCount(),
		DurationMonths: l.DurationMonths,
		CreatedAt:      l.CreatedAt,
	}
}
