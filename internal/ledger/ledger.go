package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountExists  = errors.New("account already exists")
	ErrInvalidBalance = errors.New("invalid initial balance")
)

// Ledger owns the account registry and the validate/process entry
// points. Registration is insert-once; lookups never mutate. Every
// request touches exactly one account, and the ledger never holds a
// cross-account lock, so operations on different accounts never contend
// with each other.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[string]*Account)}
}

// CreateAccount registers a new account with the given starting
// balance. Registration is insert-if-absent: a duplicate id fails with
// ErrAccountExists and never overwrites the existing account. A
// negative starting balance fails with ErrInvalidBalance.
func (l *Ledger) CreateAccount(id string, initialBalance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, errors.New("account id is required")
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBalance, initialBalance)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, id)
	}

	acct := newAccount(id, initialBalance)
	l.accounts[id] = acct
	return acct, nil
}

// GetAccount looks up an account by id. Absence is reported through the
// second return value; there is no sentinel account.
func (l *Ledger) GetAccount(id string) (*Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[id]
	return acct, ok
}

// Validate performs a read-only dry run of tx. It never marks anything
// processed and never changes a balance, so it is safe to call
// repeatedly and concurrently. It is not a safe gate before Process:
// state can change between the two calls, and only Process's internal
// atomic steps are authoritative.
func (l *Ledger) Validate(tx *Transaction) Result {
	if tx == nil {
		return InvalidInput{Reason: "nil transaction"}
	}
	if tx.id == "" || tx.accountID == "" {
		return InvalidInput{Reason: "malformed transaction"}
	}

	acct, ok := l.GetAccount(tx.accountID)
	if !ok {
		return InvalidInput{Reason: fmt.Sprintf("unknown account %q", tx.accountID)}
	}

	if acct.IsProcessed(tx.id) {
		return DuplicateTransaction{TransactionID: tx.id}
	}

	switch tx.txType {
	case TypeWithdrawal, TypeTransfer:
		balance := acct.Balance()
		if balance.LessThan(tx.amount) {
			return InsufficientFunds{CurrentBalance: balance, RequestedAmount: tx.amount}
		}
		return Success{NewBalance: balance}
	case TypeDeposit:
		return Success{NewBalance: acct.Balance()}
	default:
		return InvalidInput{Reason: fmt.Sprintf("unknown transaction type %q", tx.txType)}
	}
}

// Process applies tx. The duplicate mark always completes strictly
// before any balance mutation: for a given (account, id) pair at most
// one concurrent call ever reaches the mutation, and every other call
// returns DuplicateTransaction having changed nothing. An id consumed
// by a refused withdrawal stays consumed; resubmitting it yields
// DuplicateTransaction. A retry is a new logical attempt and needs a
// new id.
func (l *Ledger) Process(tx *Transaction) Result {
	if tx == nil {
		return InvalidInput{Reason: "nil transaction"}
	}
	if tx.id == "" || tx.accountID == "" {
		return InvalidInput{Reason: "malformed transaction"}
	}

	acct, ok := l.GetAccount(tx.accountID)
	if !ok {
		return InvalidInput{Reason: fmt.Sprintf("unknown account %q", tx.accountID)}
	}

	if !acct.MarkProcessed(tx.id) {
		return DuplicateTransaction{TransactionID: tx.id}
	}

	switch tx.txType {
	case TypeWithdrawal, TypeTransfer:
		// A transfer only debits the source account; crediting a
		// destination is outside this ledger's contract.
		balance, ok := acct.Withdraw(tx.amount)
		if !ok {
			return InsufficientFunds{CurrentBalance: balance, RequestedAmount: tx.amount}
		}
		return Success{NewBalance: balance}
	case TypeDeposit:
		return Success{NewBalance: acct.Deposit(tx.amount)}
	default:
		return InvalidInput{Reason: fmt.Sprintf("unknown transaction type %q", tx.txType)}
	}
}
