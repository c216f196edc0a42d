// Package trade decides whether a transaction is a trade involving a wallet
// and how much SOL it moved.
package trade

import (
	"strconv"
	"strings"

	"solana-wallet-lens/internal/solana"
)

// curveSuffix marks pump.fun derived addresses among account keys; used as a
// mint fallback when no token balance identifies the traded mint.
const curveSuffix = "pump"

// Classified is the classifier's verdict for one transaction. A Classified
// with an empty Mint is not a trade and must be excluded from aggregation.
type Classified struct {
	Mint         string
	LamportDelta int64
}

// IsTrade reports whether the transaction was classified as a trade.
func (c Classified) IsTrade() bool { return c.Mint != "" }

// Classifier detects wallet trades from balance snapshots.
type Classifier struct {
	solMint string
}

// NewClassifier creates a Classifier. solMint is the native wrapped-SOL mint,
// excluded when resolving the traded token.
func NewClassifier(solMint string) *Classifier {
	return &Classifier{solMint: solMint}
}

// Classify inspects one transaction. For trades it returns the traded mint
// and the wallet's SOL movement in lamports with the network fee added back,
// so the delta reflects the trade's economic outcome rather than fee costs.
func (c *Classifier) Classify(tx *solana.Transaction, wallet string) Classified {
	if tx == nil || tx.Meta == nil || tx.Message == nil {
		return Classified{}
	}

	if !c.isTrade(tx.Meta, wallet) {
		return Classified{}
	}

	mint := c.findMint(tx.Meta.PostTokenBalances, tx.Message.AccountKeys)
	if mint == "" {
		return Classified{}
	}

	return Classified{
		Mint:         mint,
		LamportDelta: SolDeltaExcludingFee(tx.Meta, tx.Message.AccountKeys, wallet),
	}
}

// isTrade runs the two-phase detection. Phase one looks for a wallet-owned
// post balance whose amount differs from its pre counterpart (joined on
// account index), or is non-zero when the transaction has no pre balances at
// all. Phase two, entered only when no wallet-owned entry was seen, accepts
// any changed non-SOL balance. The fallback can mis-read unrelated transfers
// as trades; that imprecision is accepted.
func (c *Classifier) isTrade(meta *solana.TransactionMeta, wallet string) bool {
	pre := make(map[int]solana.TokenBalance, len(meta.PreTokenBalances))
	for _, b := range meta.PreTokenBalances {
		pre[b.AccountIndex] = b
	}
	hasPre := len(meta.PreTokenBalances) > 0

	foundOwner := false
	for _, post := range meta.PostTokenBalances {
		if post.Owner != wallet {
			continue
		}
		if hasPre {
			preBal, ok := pre[post.AccountIndex]
			if !ok {
				continue
			}
			foundOwner = true
			if rawAmount(post) != rawAmount(preBal) {
				return true
			}
		} else {
			foundOwner = true
			if rawAmount(post) != 0 {
				return true
			}
		}
	}

	if foundOwner {
		return false
	}

	for _, post := range meta.PostTokenBalances {
		if post.Mint == c.solMint {
			continue
		}
		if hasPre {
			preBal, ok := pre[post.AccountIndex]
			if ok && rawAmount(post) != rawAmount(preBal) {
				return true
			}
		} else if rawAmount(post) != 0 {
			return true
		}
	}

	return false
}

// findMint resolves the traded mint: the first non-SOL mint among post token
// balances, else the first account key carrying the curve address suffix.
func (c *Classifier) findMint(postBalances []solana.TokenBalance, accountKeys []string) string {
	for _, b := range postBalances {
		if b.Mint != c.solMint {
			return b.Mint
		}
	}
	for _, key := range accountKeys {
		if strings.HasSuffix(key, curveSuffix) {
			return key
		}
	}
	return ""
}

// SolDeltaExcludingFee returns the wallet's lamport balance change with the
// network fee added back. The fee is charged regardless of trade direction
// and must not count against the trade's outcome. Returns 0 when the wallet
// is not among the account keys.
func SolDeltaExcludingFee(meta *solana.TransactionMeta, accountKeys []string, wallet string) int64 {
	return solDelta(meta, accountKeys, wallet) + feeIfPresent(meta, accountKeys, wallet)
}

// SolDelta returns the wallet's raw lamport balance change, fee included.
// The classifier does not use this gross variant; it is kept for callers
// accounting fees as part of the trade.
func SolDelta(meta *solana.TransactionMeta, accountKeys []string, wallet string) int64 {
	return solDelta(meta, accountKeys, wallet)
}

func solDelta(meta *solana.TransactionMeta, accountKeys []string, wallet string) int64 {
	i := indexOf(accountKeys, wallet)
	if i < 0 || i >= len(meta.PreBalances) || i >= len(meta.PostBalances) {
		return 0
	}
	return int64(meta.PostBalances[i]) - int64(meta.PreBalances[i])
}

func feeIfPresent(meta *solana.TransactionMeta, accountKeys []string, wallet string) int64 {
	i := indexOf(accountKeys, wallet)
	if i < 0 || i >= len(meta.PreBalances) || i >= len(meta.PostBalances) {
		return 0
	}
	return int64(meta.Fee)
}

func indexOf(keys []string, value string) int {
	for i, k := range keys {
		if k == value {
			return i
		}
	}
	return -1
}

func rawAmount(b solana.TokenBalance) uint64 {
	n, _ := strconv.ParseUint(b.UITokenAmount.Amount, 10, 64)
	return n
}
