package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account owns one balance and the set of transaction identifiers
// already processed against it. All mutation goes through the account's
// own lock; nothing else ever touches the balance or the processed set
// directly. Accounts live for the process lifetime and are never
// deleted.
type Account struct {
	id string

	mu        sync.Mutex
	balance   decimal.Decimal
	processed map[string]struct{}
}

func newAccount(id string, initial decimal.Decimal) *Account {
	return &Account{
		id:        id,
		balance:   initial,
		processed: make(map[string]struct{}),
	}
}

// ID returns the stable account identifier.
func (a *Account) ID() string { return a.id }

// Balance returns a snapshot of the current balance. The snapshot may
// be stale by the time the caller acts on it.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// MarkProcessed records txID as consumed. It returns true on first
// insertion and false if the id was already present. The check and the
// insert happen under a single lock acquisition; this is the sole
// source of truth for duplicate detection. The set is append-only: an
// id once recorded stays recorded even if the balance mutation that
// follows is refused.
func (a *Account) MarkProcessed(txID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, seen := a.processed[txID]; seen {
		return false
	}
	a.processed[txID] = struct{}{}
	return true
}

// IsProcessed reports whether txID has been consumed. Read-only; used
// by the dry-run validation path, never by the mutating path.
func (a *Account) IsProcessed(txID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, seen := a.processed[txID]
	return seen
}

// Withdraw subtracts amount if the balance covers it. The sufficiency
// check and the decrement are indivisible with respect to concurrent
// calls, so two withdrawals that individually fit can never jointly
// overdraw. On success the returned balance is the post-withdrawal
// value and ok is true; on refusal the balance is returned unchanged
// and ok is false. A negative amount is always refused; it would
// credit the balance.
func (a *Account) Withdraw(amount decimal.Decimal) (balance decimal.Decimal, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.IsNegative() || a.balance.LessThan(amount) {
		return a.balance, false
	}
	a.balance = a.balance.Sub(amount)
	return a.balance, true
}

// Deposit adds amount and returns the new balance. There is no upper
// bound; a non-negative amount always succeeds. A negative amount is
// ignored and leaves the balance unchanged.
func (a *Account) Deposit(amount decimal.Decimal) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount.IsNegative() {
		return a.balance
	}
	a.balance = a.balance.Add(amount)
	return a.balance
}
