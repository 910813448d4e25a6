package ledger

import "github.com/shopspring/decimal"

// Result is the outcome of Validate or Process. The set is closed:
// exactly the four variants below implement it, and the unexported
// marker method keeps it that way. Callers are expected to type-switch
// over all four; adding a variant forces every call site to be
// revisited.
type Result interface {
	isResult()
}

// Success means the operation applied. NewBalance is the balance as of
// the moment the mutation completed (for a Validate dry run, the
// current unmutated balance).
type Success struct {
	NewBalance decimal.Decimal
}

// InsufficientFunds means a withdrawal or transfer amount exceeded the
// balance. The balance was not changed.
type InsufficientFunds struct {
	CurrentBalance  decimal.Decimal
	RequestedAmount decimal.Decimal
}

// Shortfall returns how much the request exceeded the balance by.
func (r InsufficientFunds) Shortfall() decimal.Decimal {
	return r.RequestedAmount.Sub(r.CurrentBalance)
}

// DuplicateTransaction means the identifier was already processed on
// this account. No balance mutation occurred for this call.
type DuplicateTransaction struct {
	TransactionID string
}

// InvalidInput means the request was malformed: nil transaction,
// unknown account, or unknown type.
type InvalidInput struct {
	Reason string
}

func (Success) isResult()              {}
func (InsufficientFunds) isResult()    {}
func (DuplicateTransaction) isResult() {}
func (InvalidInput) isResult()         {}
