package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type posting struct {
	id         string
	kind       string
	clientTxID string
	from       string
	to         string
	amount     int64
	createdAt  time.Time
}

type inMemoryLedger struct {
	mu           sync.RWMutex
	balances     map[string]int64
	transactions map[string]TransactionResult
	postings     []posting
	now          func() time.Time
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances:     make(map[string]int64),
		transactions: make(map[string]TransactionResult),
		now:          time.Now,
	}
}

func (l *inMemoryLedger) EnsureAccount(_ context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[code]; !exists {
		l.balances[code] = 0
	}
	return nil
}

func (l *inMemoryLedger) Balance(_ context.Context, code string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[code]
	if !exists {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromCode, toCode, kind, clientTxID string, amount int64) (res TransactionResult, err error) {
	defer func() { observe(kind, err) }()
	if amount <= 0 {
		return TransactionResult{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := kind + ":" + clientTxID
	if res, exists := l.transactions[key]; exists {
		return res, ErrDuplicateTransaction
	}

	fromBalance, ok := l.balances[fromCode]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}
	toBalance, ok := l.balances[toCode]
	if !ok {
		return TransactionResult{}, ErrAccountNotFound
	}

	if fromBalance < amount && !mayOverdraw(fromCode) {
		return TransactionResult{}, ErrInsufficientFunds
	}

	fromBalance -= amount
	toBalance += amount

	l.balances[fromCode] = fromBalance
	l.balances[toCode] = toBalance

	res = TransactionResult{
		TransactionID: uuid.NewString(),
		FromBalance:   fromBalance,
		ToBalance:     toBalance,
	}
	l.transactions[key] = res
	l.postings = append(l.postings, posting{
		id:         res.TransactionID,
		kind:       kind,
		clientTxID: clientTxID,
		from:       fromCode,
		to:         toCode,
		amount:     amount,
		createdAt:  l.now().UTC(),
	})
	return res, nil
}

func (l *inMemoryLedger) History(_ context.Context, code string, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, exists := l.balances[code]; !exists {
		return nil, ErrAccountNotFound
	}
	limit = historyLimit(limit)
	entries := make([]Entry, 0, limit)
	for i := len(l.postings) - 1; i >= 0 && len(entries) < limit; i-- {
		p := l.postings[i]
		entry := Entry{
			TransactionID: p.id,
			Kind:          p.kind,
			Reference:     p.clientTxID,
			Status:        StatusCompleted,
			CreatedAt:     p.createdAt,
		}
		switch code {
		case p.from:
			entry.Amount = -p.amount
			entry.Counterparty = p.to
		case p.to:
			entry.Amount = p.amount
			entry.Counterparty = p.from
		default:
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
