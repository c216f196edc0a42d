// Package solana talks JSON-RPC 2.0 to a Solana node and validates the
// dynamic response shapes into typed records at the boundary.
package solana

import "context"

// Client defines the Solana RPC surface the analytics engine consumes.
type Client interface {
	// GetSignaturesForAddress retrieves signatures for an address, newest
	// first, with cursor-based pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a finalized transaction by signature.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns (nil, nil) when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}

// SignaturesOpts configures getSignaturesForAddress.
type SignaturesOpts struct {
	// Limit is the page size (RPC caps at 1000).
	Limit int
	// Before paginates backward from the given signature.
	Before string
}

// SignatureInfo is one entry of a signature page.
type SignatureInfo struct {
	Signature string
	Slot      int64
	// BlockTime is nil when the node has no timestamp for the slot.
	BlockTime *int64
	Err       interface{}
}

// Transaction is a finalized transaction with balance metadata.
type Transaction struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta holds the pre/post balance snapshots and the network fee.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TransactionMessage contains the transaction's account key list.
type TransactionMessage struct {
	AccountKeys []string
}

// TokenBalance is a token balance snapshot entry. AccountIndex is the stable
// join key between the pre and post snapshots of one transaction.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount carries the raw integer amount as a decimal string.
type UITokenAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// AccountInfo is Solana account state with base64-encoded data.
type AccountInfo struct {
	Lamports uint64
	Owner    string
	Data     string
}
