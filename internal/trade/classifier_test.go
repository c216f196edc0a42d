package trade

import (
	"testing"

	"solana-wallet-lens/internal/solana"
)

const solMint = "So11111111111111111111111111111111111111112"

func tokenBalance(index int, mint, owner, amount string) solana.TokenBalance {
	return solana.TokenBalance{
		AccountIndex: index,
		Mint:         mint,
		Owner:        owner,
		UITokenAmount: solana.UITokenAmount{
			Amount:   amount,
			Decimals: 6,
		},
	}
}

func tradeTx(meta *solana.TransactionMeta, keys []string) *solana.Transaction {
	return &solana.Transaction{
		Signature: "sig",
		Meta:      meta,
		Message:   &solana.TransactionMessage{AccountKeys: keys},
	}
}

func TestClassify_WalletBalanceChanged(t *testing.T) {
	c := NewClassifier(solMint)

	tx := tradeTx(&solana.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{10_000_000, 500},
		PostBalances: []uint64{8_000_000, 500},
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "100"),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "300"),
		},
	}, []string{"wallet1", "tokenAccount"})

	got := c.Classify(tx, "wallet1")
	if !got.IsTrade() {
		t.Fatal("expected a trade")
	}
	if got.Mint != "MintA" {
		t.Errorf("mint = %s, want MintA", got.Mint)
	}
	// post - pre = -2_000_000, fee 5000 added back.
	if got.LamportDelta != -1_995_000 {
		t.Errorf("delta = %d, want -1995000", got.LamportDelta)
	}
}

func TestClassify_UnchangedBalanceIsNotTrade(t *testing.T) {
	c := NewClassifier(solMint)

	tx := tradeTx(&solana.TransactionMeta{
		PreBalances:  []uint64{10_000_000},
		PostBalances: []uint64{10_000_000},
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "100"),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "100"),
		},
	}, []string{"wallet1"})

	if got := c.Classify(tx, "wallet1"); got.IsTrade() {
		t.Errorf("expected no trade, got %+v", got)
	}
}

func TestClassify_NoPreBalancesNonZeroPost(t *testing.T) {
	c := NewClassifier(solMint)

	tx := tradeTx(&solana.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{10_000_000},
		PostBalances: []uint64{9_000_000},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "500"),
		},
	}, []string{"wallet1"})

	got := c.Classify(tx, "wallet1")
	if !got.IsTrade() {
		t.Fatal("expected a trade for fresh token account")
	}
	if got.Mint != "MintA" {
		t.Errorf("mint = %s, want MintA", got.Mint)
	}
}

func TestClassify_NoPreBalancesZeroPost(t *testing.T) {
	c := NewClassifier(solMint)

	tx := tradeTx(&solana.TransactionMeta{
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "0"),
		},
	}, []string{"wallet1"})

	if got := c.Classify(tx, "wallet1"); got.IsTrade() {
		t.Errorf("expected no trade for zero post balance, got %+v", got)
	}
}

func TestClassify_FallbackOnForeignBalances(t *testing.T) {
	c := NewClassifier(solMint)

	// No wallet-owned entries at all; a changed non-SOL balance still counts.
	tx := tradeTx(&solana.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{5_000_000},
		PostBalances: []uint64{7_000_000},
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance(2, "MintB", "someoneElse", "100"),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(2, "MintB", "someoneElse", "900"),
		},
	}, []string{"wallet1"})

	got := c.Classify(tx, "wallet1")
	if !got.IsTrade() {
		t.Fatal("expected fallback to classify a trade")
	}
	if got.Mint != "MintB" {
		t.Errorf("mint = %s, want MintB", got.Mint)
	}
	if got.LamportDelta != 2_005_000 {
		t.Errorf("delta = %d, want 2005000", got.LamportDelta)
	}
}

func TestClassify_OwnerEntryBlocksFallback(t *testing.T) {
	c := NewClassifier(solMint)

	// Wallet-owned entry is unchanged; a foreign changed balance must not
	// rescue the classification.
	tx := tradeTx(&solana.TransactionMeta{
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "100"),
			tokenBalance(2, "MintB", "someoneElse", "100"),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, "MintA", "wallet1", "100"),
			tokenBalance(2, "MintB", "someoneElse", "900"),
		},
	}, []string{"wallet1"})

	if got := c.Classify(tx, "wallet1"); got.IsTrade() {
		t.Errorf("expected no trade, got %+v", got)
	}
}

func TestClassify_SolOnlyBalancesIgnoredInFallback(t *testing.T) {
	c := NewClassifier(solMint)

	tx := tradeTx(&solana.TransactionMeta{
		PreTokenBalances: []solana.TokenBalance{
			tokenBalance(1, solMint, "someoneElse", "100"),
		},
		PostTokenBalances: []solana.TokenBalance{
			tokenBalance(1, solMint, "someoneElse", "900"),
		},
	}, []string{"wallet1"})

	if got := c.Classify(tx, "wallet1"); got.IsTrade() {
		t.Errorf("expected no trade for SOL-only movement, got %+v", got)
	}
}

func TestFindMint_CurveSuffixFallback(t *testing.T) {
	c := NewClassifier(solMint)

	// Only SOL token balances; mint resolves via the account key suffix.
	mint := c.findMint(
		[]solana.TokenBalance{tokenBalance(1, solMint, "wallet1", "5")},
		[]string{"wallet1", "AbCdEfpump"},
	)
	if mint != "AbCdEfpump" {
		t.Errorf("mint = %s, want AbCdEfpump", mint)
	}
}

func TestFindMint_NoCandidate(t *testing.T) {
	c := NewClassifier(solMint)

	if mint := c.findMint(nil, []string{"wallet1", "other"}); mint != "" {
		t.Errorf("mint = %s, want empty", mint)
	}
}

func TestSolDeltaExcludingFee_WalletAbsent(t *testing.T) {
	meta := &solana.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{100},
		PostBalances: []uint64{200},
	}

	if d := SolDeltaExcludingFee(meta, []string{"other"}, "wallet1"); d != 0 {
		t.Errorf("delta = %d, want 0 for absent wallet", d)
	}
}

func TestSolDelta_GrossIncludesFee(t *testing.T) {
	meta := &solana.TransactionMeta{
		Fee:          5000,
		PreBalances:  []uint64{10_000_000},
		PostBalances: []uint64{8_000_000},
	}
	keys := []string{"wallet1"}

	if d := SolDelta(meta, keys, "wallet1"); d != -2_000_000 {
		t.Errorf("gross delta = %d, want -2000000", d)
	}
	if d := SolDeltaExcludingFee(meta, keys, "wallet1"); d != -1_995_000 {
		t.Errorf("net delta = %d, want -1995000", d)
	}
}

func TestClassify_NilGuards(t *testing.T) {
	c := NewClassifier(solMint)

	if got := c.Classify(nil, "wallet1"); got.IsTrade() {
		t.Error("nil transaction classified as trade")
	}
	if got := c.Classify(&solana.Transaction{}, "wallet1"); got.IsTrade() {
		t.Error("transaction without meta classified as trade")
	}
}
