package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/txledger/internal/api"
	"github.com/example/txledger/internal/config"
	"github.com/example/txledger/internal/ledger"
	"github.com/example/txledger/internal/security"
	"github.com/example/txledger/pkg/audit"
	"github.com/example/txledger/pkg/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	allowlist, err := security.ParseCIDRAllowlist(cfg.IPAllowlist)
	if err != nil {
		logger.Error("invalid LEDGER_IP_ALLOWLIST", "error", err)
		os.Exit(1)
	}

	book := ledger.New()
	auditor := audit.NewChainLogger()
	collector := metrics.NewCollector(logger)
	metricsSrv := collector.StartServer(cfg.MetricsAddr)

	router, err := api.NewRouter(api.Dependencies{
		Logger:       logger,
		Ledger:       book,
		Auditor:      auditor,
		Metrics:      collector,
		IPAllowlist:  allowlist,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = metricsSrv.Shutdown(ctx)
	}()

	logger.Info("ledger listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("ledger stopped")
}
