package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/example/txledger/internal/ledger"
	"github.com/example/txledger/internal/security"
)

type createAccountRequest struct {
	AccountID      string `json:"account_id"`
	InitialBalance string `json:"initial_balance"`
}

type createAccountResponse struct {
	CorrelationID string `json:"correlation_id"`
	AccountID     string `json:"account_id"`
	Balance       string `json:"balance"`
}

type balanceResponse struct {
	CorrelationID string `json:"correlation_id"`
	AccountID     string `json:"account_id"`
	Balance       string `json:"balance"`
}

type transactionRequest struct {
	TransactionID string `json:"transaction_id"`
	AccountID     string `json:"account_id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
}

type transactionResponse struct {
	CorrelationID   string `json:"correlation_id"`
	TransactionID   string `json:"transaction_id"`
	AccountID       string `json:"account_id"`
	Outcome         string `json:"outcome"`
	Balance         string `json:"balance,omitempty"`
	CurrentBalance  string `json:"current_balance,omitempty"`
	RequestedAmount string `json:"requested_amount,omitempty"`
	Shortfall       string `json:"shortfall,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

const (
	outcomeSuccess              = "success"
	outcomeInsufficientFunds    = "insufficient_funds"
	outcomeDuplicateTransaction = "duplicate_transaction"
	outcomeInvalidInput         = "invalid_input"
)

func handleCreateAccount(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		initial, err := decimal.NewFromString(req.InitialBalance)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_balance")
			return
		}

		acct, err := deps.Ledger.CreateAccount(req.AccountID, initial)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountExists) {
				security.WriteJSONError(w, r, http.StatusConflict, "account_exists")
				return
			}
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_request")
			return
		}

		balance := acct.Balance()
		if deps.Metrics != nil {
			deps.Metrics.RecordAccountCreated()
			deps.Metrics.SetAccountBalance(acct.ID(), balance.InexactFloat64())
		}

		writeJSON(w, r, http.StatusCreated, createAccountResponse{
			CorrelationID: security.CorrelationIDFromContext(r.Context()),
			AccountID:     acct.ID(),
			Balance:       balance.String(),
		})
	}
}

func handleBalance(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")

		acct, ok := deps.Ledger.GetAccount(accountID)
		if !ok {
			security.WriteJSONError(w, r, http.StatusNotFound, "account_not_found")
			return
		}

		writeJSON(w, r, http.StatusOK, balanceResponse{
			CorrelationID: security.CorrelationIDFromContext(r.Context()),
			AccountID:     acct.ID(),
			Balance:       acct.Balance().String(),
		})
	}
}

func handleProcess(deps Dependencies) http.HandlerFunc {
	return handleTransaction(deps, false)
}

func handleValidate(deps Dependencies) http.HandlerFunc {
	return handleTransaction(deps, true)
}

func handleTransaction(deps Dependencies, dryRun bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_amount")
			return
		}

		txType, err := ledger.ParseTransactionType(req.Type)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_type")
			return
		}

		tx, err := ledger.NewTransaction(req.TransactionID, req.AccountID, txType, amount)
		if err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_transaction")
			return
		}

		var res ledger.Result
		if dryRun {
			res = deps.Ledger.Validate(tx)
		} else {
			start := time.Now()
			res = deps.Ledger.Process(tx)
			elapsed := time.Since(start)

			outcome := outcomeOf(res)
			if deps.Metrics != nil {
				deps.Metrics.RecordTransaction(outcome, elapsed)
				if s, ok := res.(ledger.Success); ok {
					deps.Metrics.SetAccountBalance(tx.AccountID(), s.NewBalance.InexactFloat64())
				}
			}
			if deps.Auditor != nil {
				deps.Auditor.Append(fmt.Sprintf("tx=%s account=%s type=%s outcome=%s", tx.ID(), tx.AccountID(), tx.Type(), outcome))
			}
		}

		writeResult(w, r, req, res)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, req transactionRequest, res ledger.Result) {
	resp := transactionResponse{
		CorrelationID: security.CorrelationIDFromContext(r.Context()),
		TransactionID: req.TransactionID,
		AccountID:     req.AccountID,
		Outcome:       outcomeOf(res),
	}

	switch v := res.(type) {
	case ledger.Success:
		resp.Balance = v.NewBalance.String()
		writeJSON(w, r, http.StatusOK, resp)
	case ledger.InsufficientFunds:
		resp.CurrentBalance = v.CurrentBalance.String()
		resp.RequestedAmount = v.RequestedAmount.String()
		resp.Shortfall = v.Shortfall().String()
		writeJSON(w, r, http.StatusUnprocessableEntity, resp)
	case ledger.DuplicateTransaction:
		writeJSON(w, r, http.StatusConflict, resp)
	case ledger.InvalidInput:
		resp.Reason = v.Reason
		writeJSON(w, r, http.StatusBadRequest, resp)
	default:
		security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func outcomeOf(res ledger.Result) string {
	switch res.(type) {
	case ledger.Success:
		return outcomeSuccess
	case ledger.InsufficientFunds:
		return outcomeInsufficientFunds
	case ledger.DuplicateTransaction:
		return outcomeDuplicateTransaction
	case ledger.InvalidInput:
		return outcomeInvalidInput
	default:
		return "unknown"
	}
}
