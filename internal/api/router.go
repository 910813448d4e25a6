package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/example/txledger/internal/ledger"
	"github.com/example/txledger/internal/security"
	"github.com/example/txledger/pkg/audit"
)

type Auditor interface {
	Append(payload string) *audit.LogEntry
}

type Metrics interface {
	RecordAccountCreated()
	RecordTransaction(outcome string, duration time.Duration)
	SetAccountBalance(accountID string, balance float64)
}

type Dependencies struct {
	Logger *slog.Logger

	Ledger interface {
		CreateAccount(id string, initialBalance decimal.Decimal) (*ledger.Account, error)
		GetAccount(id string) (*ledger.Account, bool)
		Validate(tx *ledger.Transaction) ledger.Result
		Process(tx *ledger.Transaction) ledger.Result
	}

	Auditor      Auditor
	Metrics      Metrics
	IPAllowlist  []*net.IPNet
	MaxBodyBytes int64
}

func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	createAccountV, err := security.NewJSONSchemaValidator(createAccountSchema)
	if err != nil {
		return nil, err
	}
	transactionV, err := security.NewJSONSchemaValidator(transactionSchema)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(security.CorrelationID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(security.BodySizeLimit(deps.MaxBodyBytes))
	r.Use(security.IPAllowlist(deps.IPAllowlist))
	if deps.Auditor != nil {
		r.Use(AuditMiddleware(deps.Auditor))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.With(createAccountV.Middleware).Post("/", handleCreateAccount(deps))
			r.Get("/{accountID}/balance", handleBalance(deps))
		})

		r.Route("/transactions", func(r chi.Router) {
			v := r.With(transactionV.Middleware)
			v.Post("/", handleProcess(deps))
			v.Post("/validate", handleValidate(deps))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		security.WriteJSONError(w, r, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	return r, nil
}
