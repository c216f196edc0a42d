// Package analytics derives trading analytics for a wallet from its raw
// on-chain history. Everything is computed fresh per call; nothing persists
// between invocations.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"solana-wallet-lens/internal/history"
	"solana-wallet-lens/internal/observability"
	"solana-wallet-lens/internal/retry"
	"solana-wallet-lens/internal/solana"
	"solana-wallet-lens/internal/trade"
)

// Defaults for engine tuning knobs.
const (
	DefaultConcurrency = 100
	DefaultWindow      = 7 * 24 * time.Hour
	DefaultBotTxLimit  = 200
	DefaultSolDecimals = 9

	// Consecutive transactions closer than fastGapSeconds count as fast;
	// a wallet whose fast share exceeds fastShare is flagged as a bot.
	fastGapSeconds = 3
	fastShare      = 0.5
)

// TokenProfit is the profit of one token over the analysis window.
type TokenProfit struct {
	Token  string  `json:"token"`
	Profit float64 `json:"profit"`
}

// ProfitSummary aggregates a wallet's trading over the analysis window.
type ProfitSummary struct {
	TotalProfit  float64            `json:"total_profit"`
	TokenProfits map[string]float64 `json:"token_profits"`
	WinRate      float64            `json:"win_rate"`
}

// Options configures an Engine.
type Options struct {
	RPC        solana.Client
	Fetcher    *history.Fetcher
	Classifier *trade.Classifier
	// Concurrency bounds in-flight fetch+classify tasks process-wide.
	Concurrency int64
	// TxRetry wraps per-transaction detail fetches.
	TxRetry     retry.Policy
	Window      time.Duration
	BotTxLimit  int
	SolDecimals int
	Logger      logrus.FieldLogger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Engine computes wallet analytics. One engine is shared by all requests:
// its semaphore is a deliberate global backpressure valve against the
// upstream RPC, so concurrent requests for different wallets still share the
// concurrency ceiling.
type Engine struct {
	rpc         solana.Client
	fetcher     *history.Fetcher
	classifier  *trade.Classifier
	sem         *semaphore.Weighted
	txPolicy    retry.Policy
	window      time.Duration
	botTxLimit  int
	solDecimals int
	log         logrus.FieldLogger
	now         func() time.Time
}

// New creates an Engine, applying defaults for unset options.
func New(opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.BotTxLimit <= 0 {
		opts.BotTxLimit = DefaultBotTxLimit
	}
	if opts.SolDecimals <= 0 {
		opts.SolDecimals = DefaultSolDecimals
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Engine{
		rpc:         opts.RPC,
		fetcher:     opts.Fetcher,
		classifier:  opts.Classifier,
		sem:         semaphore.NewWeighted(opts.Concurrency),
		txPolicy:    opts.TxRetry,
		window:      opts.Window,
		botTxLimit:  opts.BotTxLimit,
		solDecimals: opts.SolDecimals,
		log:         opts.Logger,
		now:         opts.Now,
	}
}

// PurchasedTokens returns the mints the wallet traded within the window,
// sorted for deterministic output.
func (e *Engine) PurchasedTokens(ctx context.Context, wallet string) ([]string, error) {
	trades, err := e.classifyWindow(ctx, wallet)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, t := range trades {
		if !seen[t.Mint] {
			seen[t.Mint] = true
			tokens = append(tokens, t.Mint)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

// ProfitPerToken returns the wallet's profit for one token over the window.
func (e *Engine) ProfitPerToken(ctx context.Context, wallet, token string) (*TokenProfit, error) {
	trades, err := e.classifyWindow(ctx, wallet)
	if err != nil {
		return nil, err
	}

	var lamports int64
	for _, t := range trades {
		if t.Mint == token {
			lamports += t.LamportDelta
		}
	}
	return &TokenProfit{Token: token, Profit: e.toSol(lamports)}, nil
}

// ProfitForEachToken returns per-token profits for every token the wallet
// traded within the window.
func (e *Engine) ProfitForEachToken(ctx context.Context, wallet string) (map[string]float64, error) {
	trades, err := e.classifyWindow(ctx, wallet)
	if err != nil {
		return nil, err
	}

	lamports := make(map[string]int64)
	for _, t := range trades {
		lamports[t.Mint] += t.LamportDelta
	}

	profits := make(map[string]float64, len(lamports))
	for mint, amount := range lamports {
		profits[mint] = e.toSol(amount)
	}
	return profits, nil
}

// WinRate returns the wallet's win rate over the window as a percentage.
func (e *Engine) WinRate(ctx context.Context, wallet string) (float64, error) {
	profits, err := e.ProfitForEachToken(ctx, wallet)
	if err != nil {
		return 0, err
	}
	return WinRateFromProfits(profits), nil
}

// TotalProfit returns the wallet's total profit, per-token breakdown and win
// rate over the window.
func (e *Engine) TotalProfit(ctx context.Context, wallet string) (*ProfitSummary, error) {
	profits, err := e.ProfitForEachToken(ctx, wallet)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, p := range profits {
		total += p
	}
	return &ProfitSummary{
		TotalProfit:  total,
		TokenProfits: profits,
		WinRate:      WinRateFromProfits(profits),
	}, nil
}

// classifyWindow fetches the wallet's in-window history and classifies every
// transaction concurrently, bounded by the engine's semaphore. Results are
// collected in full before any reduction; ordering is irrelevant here.
func (e *Engine) classifyWindow(ctx context.Context, wallet string) ([]trade.Classified, error) {
	cutoff := e.now().Add(-e.window).Unix()

	sigs, err := e.fetcher.FetchUntil(ctx, wallet, cutoff)
	if err != nil {
		return nil, err
	}

	// Exact window filter; the fetcher overshoots by design.
	var recent []solana.SignatureInfo
	for _, s := range sigs {
		if s.BlockTime != nil && *s.BlockTime >= cutoff {
			recent = append(recent, s)
		}
	}

	results := make([]trade.Classified, len(recent))
	g, gctx := errgroup.WithContext(ctx)
	for i, sig := range recent {
		i, sig := i, sig
		g.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.sem.Release(1)

			observability.ClassificationStarted()
			defer observability.ClassificationDone()

			tx, err := retry.DoValue(gctx, e.txPolicy, func() (*solana.Transaction, error) {
				return e.rpc.GetTransaction(gctx, sig.Signature)
			})
			if err != nil {
				// One unavailable transaction must not fail the whole
				// wallet scan; it simply classifies as no trade.
				e.log.WithField("signature", sig.Signature).WithError(err).
					Debug("transaction unavailable, skipped")
				return nil
			}

			if tx.BlockTime == nil || *tx.BlockTime < cutoff {
				return nil
			}

			results[i] = e.classifier.Classify(tx, wallet)
			observability.RecordClassification()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var trades []trade.Classified
	for _, r := range results {
		if r.IsTrade() {
			trades = append(trades, r)
		}
	}
	return trades, nil
}

func (e *Engine) toSol(lamports int64) float64 {
	return float64(lamports) / math.Pow10(e.solDecimals)
}
