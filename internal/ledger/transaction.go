package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the supported operations.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
)

var (
	ErrInvalidAmount = errors.New("invalid transaction amount")
	ErrInvalidType   = errors.New("invalid transaction type")
)

// ParseTransactionType converts a wire string into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Transaction is an immutable, validated request to move money,
// identified by a caller-supplied unique id. The only way to obtain one
// is NewTransaction, so no instance with an invalid amount or type can
// reach the ledger.
type Transaction struct {
	id        string
	accountID string
	txType    TransactionType
	amount    decimal.Decimal
}

// NewTransaction validates the request and builds a Transaction.
// A negative amount or an unknown type fails immediately.
func NewTransaction(id, accountID string, txType TransactionType, amount decimal.Decimal) (*Transaction, error) {
	if id == "" {
		return nil, errors.New("transaction id is required")
	}
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	switch txType {
	case TypeDeposit, TypeWithdrawal, TypeTransfer:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, txType)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	return &Transaction{
		id:        id,
		accountID: accountID,
		txType:    txType,
		amount:    amount,
	}, nil
}

// ID returns the caller-supplied transaction identifier, the dedup key.
func (t *Transaction) ID() string { return t.id }

// AccountID returns the identifier of the target account.
func (t *Transaction) AccountID() string { return t.accountID }

// Type returns the operation kind.
func (t *Transaction) Type() TransactionType { return t.txType }

// Amount returns the non-negative amount to move.
func (t *Transaction) Amount() decimal.Decimal { return t.amount }
