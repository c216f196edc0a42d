package pricing

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/curve"
	"solana-wallet-lens/internal/retry"
	"solana-wallet-lens/internal/solana"
)

// ErrCurveStateUnknown means the bonding-curve account could not be fetched;
// without it no price can be derived.
var ErrCurveStateUnknown = errors.New("bonding curve state unknown")

var errAccountMissing = errors.New("curve account missing")

// Quoter fetches spot prices from the external quote API.
type Quoter interface {
	Price(ctx context.Context, mint string) (float64, error)
}

// Resolver returns a token's current price. While a token still trades on
// its bonding curve the price comes from the curve reserves; once the curve
// completes, the reserves stop being authoritative and the exchange quote is
// used instead.
type Resolver struct {
	rpc           solana.Client
	quotes        Quoter
	programID     string
	solMint       string
	solDecimals   int
	tokenDecimals int
	accountPolicy retry.Policy
	log           logrus.FieldLogger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	RPC           solana.Client
	Quotes        Quoter
	ProgramID     string
	SolMint       string
	SolDecimals   int
	TokenDecimals int
	AccountRetry  retry.Policy
	Logger        logrus.FieldLogger
}

// NewResolver creates a Resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Resolver{
		rpc:           opts.RPC,
		quotes:        opts.Quotes,
		programID:     opts.ProgramID,
		solMint:       opts.SolMint,
		solDecimals:   opts.SolDecimals,
		tokenDecimals: opts.TokenDecimals,
		accountPolicy: opts.AccountRetry,
		log:           opts.Logger,
	}
}

// TokenPrice resolves the current price of mint in the reference currency.
// Address derivation failures and malformed curve buffers surface
// immediately and are never retried; a missing curve account degrades to
// ErrCurveStateUnknown, a failed quote to ErrQuoteUnavailable.
func (r *Resolver) TokenPrice(ctx context.Context, mint string) (float64, error) {
	addr, err := curve.StateAddress(mint, r.programID)
	if err != nil {
		return 0, err
	}

	info, err := retry.DoValue(ctx, r.accountPolicy, func() (*solana.AccountInfo, error) {
		info, err := r.rpc.GetAccountInfo(ctx, addr)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return nil, errAccountMissing
		}
		return info, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %v", ErrCurveStateUnknown, mint, err)
	}

	raw, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return 0, fmt.Errorf("decode curve account data for %s: %w", mint, err)
	}

	state, err := curve.DecodeState(raw)
	if err != nil {
		return 0, err
	}

	if state.Complete {
		// Curve graduated to open-market trading; quote the token itself.
		return r.quotes.Price(ctx, mint)
	}

	if state.VirtualTokenReserves == 0 {
		return 0, fmt.Errorf("%w for %s: zero virtual token reserves", ErrCurveStateUnknown, mint)
	}

	priceInSol := float64(state.VirtualSolReserves) * math.Pow10(r.tokenDecimals) /
		(math.Pow10(r.solDecimals) * float64(state.VirtualTokenReserves))

	solPrice, err := r.quotes.Price(ctx, r.solMint)
	if err != nil {
		return 0, err
	}

	return priceInSol * solPrice, nil
}
