// Package history paginates a wallet's signature list backward in time.
package history

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/observability"
	"solana-wallet-lens/internal/retry"
	"solana-wallet-lens/internal/solana"
)

// DefaultPageLimit is the RPC cap for getSignaturesForAddress.
const DefaultPageLimit = 1000

// Fetcher walks a wallet's transaction signatures from most recent backward.
// Pagination is strictly sequential: each page's cursor is the previous
// page's last signature.
type Fetcher struct {
	rpc       solana.Client
	pageLimit int
	policy    retry.Policy
	log       logrus.FieldLogger
}

// NewFetcher creates a Fetcher. pageLimit <= 0 uses DefaultPageLimit.
func NewFetcher(rpc solana.Client, pageLimit int, policy retry.Policy, log logrus.FieldLogger) *Fetcher {
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{rpc: rpc, pageLimit: pageLimit, policy: policy, log: log}
}

// FetchUntil returns the union of all pages down to the one whose oldest
// entry crosses cutoff (unix seconds). The result deliberately overshoots:
// pages cross the cutoff at arbitrary points, so entries at or before it are
// included and the caller filters to the exact window by timestamp. An entry
// without a block time never stops pagination.
//
// Exhausted retries propagate: history is the input to profit analytics,
// which have no safe degraded answer.
func (f *Fetcher) FetchUntil(ctx context.Context, wallet string, cutoff int64) ([]solana.SignatureInfo, error) {
	var all []solana.SignatureInfo
	var before string

	for {
		opts := &solana.SignaturesOpts{Limit: f.pageLimit, Before: before}
		page, err := retry.DoValue(ctx, f.policy, func() ([]solana.SignatureInfo, error) {
			return f.rpc.GetSignaturesForAddress(ctx, wallet, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("fetch history for %s: %w", wallet, err)
		}
		observability.RecordHistoryPage()

		if len(page) == 0 {
			break
		}
		all = append(all, page...)

		oldest := page[len(page)-1]
		if oldest.BlockTime != nil && *oldest.BlockTime < cutoff {
			break
		}
		before = oldest.Signature
	}

	f.log.WithFields(logrus.Fields{
		"wallet":     wallet,
		"signatures": len(all),
	}).Debug("fetched wallet history")

	return all, nil
}

// FetchRecent returns the most recent signatures, capped at limit. Exhausted
// retries degrade to an empty result: the only consumer is the bot heuristic,
// which reports indeterminate on missing history rather than failing.
func (f *Fetcher) FetchRecent(ctx context.Context, wallet string, limit int) []solana.SignatureInfo {
	opts := &solana.SignaturesOpts{Limit: limit}
	page, err := retry.DoValue(ctx, f.policy, func() ([]solana.SignatureInfo, error) {
		return f.rpc.GetSignaturesForAddress(ctx, wallet, opts)
	})
	if err != nil {
		f.log.WithField("wallet", wallet).WithError(err).Warn("recent history unavailable")
		return nil
	}
	observability.RecordHistoryPage()
	return page
}
