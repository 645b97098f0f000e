package ledger

// SeedBalance sets the balance of code on an in-memory ledger. The
// difference is booked against the card suspense account when that account
// exists, so the books keep summing to zero. Other backends are untouched.
func SeedBalance(l Ledger, code string, amount int64) {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	delta := amount - mem.balances[code]
	mem.balances[code] = amount
	if code == CardSuspenseAccountCode {
		return
	}
	if _, exists := mem.balances[CardSuspenseAccountCode]; exists {
		mem.balances[CardSuspenseAccountCode] -= delta
	}
}
