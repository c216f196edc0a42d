// Package pricing resolves current token prices from bonding-curve state or
// an external exchange quote.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/observability"
	"solana-wallet-lens/internal/retry"
)

// ErrQuoteUnavailable means the external price API returned no usable price.
// It is an expected, recoverable business condition, not a hard failure.
var ErrQuoteUnavailable = errors.New("price quote unavailable")

// QuoteClient fetches spot prices from the external quote API, quoted
// against a fixed reference mint.
type QuoteClient struct {
	baseURL string
	vsToken string
	client  *http.Client
	policy  retry.Policy
	log     logrus.FieldLogger
}

// NewQuoteClient creates a QuoteClient. vsToken is the reference-currency
// mint every quote is expressed in.
func NewQuoteClient(baseURL, vsToken string, policy retry.Policy, log logrus.FieldLogger) *QuoteClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuoteClient{
		baseURL: baseURL,
		vsToken: vsToken,
		client:  &http.Client{Timeout: 10 * time.Second},
		policy:  policy,
		log:     log,
	}
}

// Price returns the current spot price for mint. Transport failures are
// retried under the client's policy; exhaustion and missing prices both
// surface as ErrQuoteUnavailable.
func (q *QuoteClient) Price(ctx context.Context, mint string) (float64, error) {
	price, err := retry.DoValue(ctx, q.policy, func() (float64, error) {
		return q.fetch(ctx, mint)
	})
	if err != nil {
		observability.RecordQuoteFailure()
		q.log.WithField("mint", mint).WithError(err).Warn("quote unavailable")
		if errors.Is(err, ErrQuoteUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	return price, nil
}

// quotePrice accepts the price field both as a JSON number and as the
// string-encoded decimal the upstream API serves.
type quotePrice float64

func (p *quotePrice) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", s, err)
	}
	*p = quotePrice(f)
	return nil
}

type quoteResponse struct {
	// Entries are pointers: the API answers unknown mints with a null entry,
	// which must read the same as an absent key.
	Data map[string]*struct {
		Price quotePrice `json:"price"`
	} `json:"data"`
}

func (q *QuoteClient) fetch(ctx context.Context, mint string) (float64, error) {
	u, err := url.Parse(q.baseURL)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("parse quote url: %w", err))
	}
	qs := u.Query()
	qs.Set("ids", mint)
	qs.Set("vsToken", q.vsToken)
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote api status %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}

	entry, ok := body.Data[mint]
	if !ok || entry == nil {
		// The API answered without this mint; asking again immediately will
		// not produce a price.
		return 0, retry.Permanent(ErrQuoteUnavailable)
	}
	return float64(entry.Price), nil
}
