// Package main runs the wallet analytics tool server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/analytics"
	"solana-wallet-lens/internal/config"
	"solana-wallet-lens/internal/history"
	"solana-wallet-lens/internal/pricing"
	"solana-wallet-lens/internal/retry"
	"solana-wallet-lens/internal/server"
	"solana-wallet-lens/internal/solana"
	"solana-wallet-lens/internal/trade"
)

// Retry policies per upstream operation.
var (
	historyRetry = retry.Policy{MaxAttempts: 10, Delay: 1 * time.Second}
	txRetry      = retry.Policy{MaxAttempts: 10, Delay: 1 * time.Second}
	accountRetry = retry.Policy{MaxAttempts: 5, Delay: 2 * time.Second}
	quoteRetry   = retry.Policy{MaxAttempts: 5, Delay: 1 * time.Second}
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	fetcher := history.NewFetcher(rpc, cfg.PageLimit, historyRetry, log)
	classifier := trade.NewClassifier(cfg.SolMint)

	engine := analytics.New(analytics.Options{
		RPC:         rpc,
		Fetcher:     fetcher,
		Classifier:  classifier,
		Concurrency: cfg.Concurrency,
		TxRetry:     txRetry,
		Window:      cfg.HistoryWindow,
		BotTxLimit:  cfg.BotTxLimit,
		SolDecimals: cfg.SolDecimals,
		Logger:      log,
	})

	quotes := pricing.NewQuoteClient(cfg.QuoteAPIURL, cfg.USDCMint, quoteRetry, log)
	resolver := pricing.NewResolver(pricing.ResolverOptions{
		RPC:           rpc,
		Quotes:        quotes,
		ProgramID:     cfg.PumpProgramID,
		SolMint:       cfg.SolMint,
		SolDecimals:   cfg.SolDecimals,
		TokenDecimals: cfg.TokenDecimals,
		AccountRetry:  accountRetry,
		Logger:        log,
	})

	srv := server.New(server.Options{
		Engine:   engine,
		Resolver: resolver,
		Logger:   log,
	})

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		go func() {
			// Second signal forces immediate exit.
			<-sigCh
			os.Exit(1)
		}()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("shutdown did not complete cleanly")
		}
	}()

	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("shutdown complete")
}
