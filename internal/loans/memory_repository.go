package loans

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	loans map[string]Loan
}

// NewMemoryRepository builds an in-memory loan store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{loans: make(map[string]Loan)}
}

func (r *memoryRepository) Create(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loans {
		if l.BorrowerID == loan.BorrowerID && l.Status == StatusActive {
			return ErrActiveLoanExists
		}
	}
	r.loans[loan.ID] = clone(loan)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	return clone(l), nil
}

func (r *memoryRepository) ListByBorrower(_ context.Context, borrowerID string) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Loan
	for _, l := range r.loans {
		if l.BorrowerID == borrowerID {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) ActiveByBorrower(_ context.Context, borrowerID string) (Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loans {
		if l.BorrowerID == borrowerID && l.Status == StatusActive {
			return clone(l), nil
		}
	}
	return Loan{}, ErrLoanNotFound
}

func (r *memoryRepository) SetDisbursement(_ context.Context, id, txID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	l.DisbursementTxID = txID
	r.loans[id] = l
	return nil
}

func (r *memoryRepository) SetStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return ErrLoanNotFound
	}
	l.Status = status
	r.loans[id] = l
	return nil
}

func (r *memoryRepository) MarkInstallmentPaid(_ context.Context, id string, number int, txID string, paidAt time.Time) (Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	if l.Status != StatusActive {
		return Loan{}, ErrLoanClosed
	}
	idx := -1
	for i, in := range l.Installments {
		if in.Number == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Loan{}, ErrInstallmentMissing
	}
	if l.Installments[idx].Status == InstallmentPaid {
		return Loan{}, ErrInstallmentPaid
	}
	at := paidAt.UTC()
	l.Installments[idx].Status = InstallmentPaid
	l.Installments[idx].PaidAt = &at
	l.Installments[idx].TransactionID = txID
	if _, pending := l.NextInstallment(); !pending {
		l.Status = StatusCompleted
		l.CompletedAt = &at
	}
	r.loans[id] = l
	return clone(l), nil
}

func clone(l Loan) Loan {
	l.Installments = append([]Installment(nil), l.Installments...)
	return l
}
