// Package stub provides an in-memory solana.Client for tests.
package stub

import (
	"context"

	"solana-wallet-lens/internal/solana"
)

// Client implements solana.Client over canned data. Signature lists are
// stored newest first and served with real before/limit cursor semantics so
// pagination code can be exercised faithfully.
type Client struct {
	Signatures   map[string][]solana.SignatureInfo
	Transactions map[string]*solana.Transaction
	Accounts     map[string]*solana.AccountInfo

	// Errs injects an error per RPC method name.
	Errs map[string]error

	// Call counters for assertions.
	SignatureCalls   int
	TransactionCalls int
	AccountCalls     int
}

// New creates an empty stub client.
func New() *Client {
	return &Client{
		Signatures:   make(map[string][]solana.SignatureInfo),
		Transactions: make(map[string]*solana.Transaction),
		Accounts:     make(map[string]*solana.AccountInfo),
		Errs:         make(map[string]error),
	}
}

// GetSignaturesForAddress serves a page from the canned signature list.
func (c *Client) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.SignatureCalls++
	if err := c.Errs["getSignaturesForAddress"]; err != nil {
		return nil, err
	}

	sigs := c.Signatures[address]

	if opts != nil && opts.Before != "" {
		start := len(sigs)
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
		sigs = sigs[start:]
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	return sigs, nil
}

// GetTransaction retrieves a canned transaction by signature.
func (c *Client) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.TransactionCalls++
	if err := c.Errs["getTransaction"]; err != nil {
		return nil, err
	}

	tx, ok := c.Transactions[signature]
	if !ok {
		return nil, &solana.RPCError{Method: "getTransaction", Reason: "empty result"}
	}
	return tx, nil
}

// GetAccountInfo retrieves a canned account; (nil, nil) when absent.
func (c *Client) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.AccountCalls++
	if err := c.Errs["getAccountInfo"]; err != nil {
		return nil, err
	}
	return c.Accounts[pubkey], nil
}

// AddTransaction adds a transaction to the stub store.
func (c *Client) AddTransaction(tx *solana.Transaction) {
	c.Transactions[tx.Signature] = tx
}

// AddSignatures appends signature entries for an address, newest first.
func (c *Client) AddSignatures(address string, sigs ...solana.SignatureInfo) {
	c.Signatures[address] = append(c.Signatures[address], sigs...)
}
