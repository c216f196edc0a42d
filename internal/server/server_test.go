package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/analytics"
	"solana-wallet-lens/internal/history"
	"solana-wallet-lens/internal/pricing"
	"solana-wallet-lens/internal/retry"
	"solana-wallet-lens/internal/solana"
	"solana-wallet-lens/internal/solana/stub"
	"solana-wallet-lens/internal/trade"
)

const solMint = "So11111111111111111111111111111111111111112"

type resolverStub struct {
	price float64
	err   error
}

func (r *resolverStub) TokenPrice(context.Context, string) (float64, error) {
	return r.price, r.err
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(rpc *stub.Client, resolver PriceResolver) *Server {
	log := testLogger()
	engine := analytics.New(analytics.Options{
		RPC:        rpc,
		Fetcher:    history.NewFetcher(rpc, 1000, retry.Policy{MaxAttempts: 1}, log),
		Classifier: trade.NewClassifier(solMint),
		TxRetry:    retry.Policy{MaxAttempts: 1},
		Logger:     log,
	})
	return New(Options{Engine: engine, Resolver: resolver, Logger: log})
}

func invoke(t *testing.T, handler http.Handler, name string, args Arguments) (*httptest.ResponseRecorder, invokeResponse) {
	t.Helper()

	body, err := json.Marshal(invokeRequest{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invoke", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp invokeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return rec, resp
}

func TestHandleTools_ListsAll(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{
		"calculate-profit-for-each-token",
		"calculate-profit-per-token",
		"calculate-total-profit",
		"calculate-win-rate",
		"get-purchased-tokens",
		"get-token-price",
		"is-bot-trading",
	}
	if len(body.Tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(body.Tools), len(want))
	}
	for i, name := range want {
		if body.Tools[i].Name != name {
			t.Errorf("tool[%d] = %s, want %s", i, body.Tools[i].Name, name)
		}
	}
}

func TestHandleInvoke_UnknownTool(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	rec, resp := invoke(t, srv.Handler(), "no-such-tool", Arguments{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if resp.Error == "" {
		t.Error("expected error message")
	}
}

func TestHandleInvoke_WinRateEmptyWallet(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	rec, resp := invoke(t, srv.Handler(), "calculate-win-rate", Arguments{WalletAddress: "wallet1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rate, ok := resp.Result.(float64); !ok || rate != 0 {
		t.Errorf("result = %v, want 0", resp.Result)
	}
}

func TestHandleInvoke_PurchasedTokensEmptyIsList(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	rec, _ := invoke(t, srv.Handler(), "get-purchased-tokens", Arguments{WalletAddress: "wallet1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "[]") {
		t.Errorf("expected empty JSON list, got %s", rec.Body.String())
	}
}

func TestHandleInvoke_IsBotTradingIndeterminate(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	rec, resp := invoke(t, srv.Handler(), "is-bot-trading", Arguments{WalletAddress: "wallet1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	msg, ok := resp.Result.(string)
	if !ok || !strings.Contains(msg, "wallet1") {
		t.Errorf("result = %v, want indeterminate message naming the wallet", resp.Result)
	}
}

func TestHandleInvoke_IsBotTradingVerdict(t *testing.T) {
	rpc := stub.New()
	for i, at := range []int64{105, 104, 103, 102, 101, 100} {
		rpc.AddSignatures("wallet1", solana.SignatureInfo{
			Signature: string(rune('a' + i)),
			BlockTime: &at,
		})
	}

	srv := newTestServer(rpc, &resolverStub{})

	rec, resp := invoke(t, srv.Handler(), "is-bot-trading", Arguments{WalletAddress: "wallet1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if verdict, ok := resp.Result.(bool); !ok || !verdict {
		t.Errorf("result = %v, want true", resp.Result)
	}
}

func TestHandleInvoke_TokenPrice(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{price: 0.0042})

	rec, resp := invoke(t, srv.Handler(), "get-token-price", Arguments{Token: "MintA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if price, ok := resp.Result.(float64); !ok || price != 0.0042 {
		t.Errorf("result = %v, want 0.0042", resp.Result)
	}
}

func TestHandleInvoke_TokenPriceCurveUnknown(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{err: pricing.ErrCurveStateUnknown})

	rec, resp := invoke(t, srv.Handler(), "get-token-price", Arguments{Token: "MintA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	msg, ok := resp.Result.(string)
	if !ok || !strings.Contains(msg, "bonding curve") {
		t.Errorf("result = %v, want curve-state message", resp.Result)
	}
}

func TestHandleInvoke_TokenPriceQuoteUnavailable(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{err: pricing.ErrQuoteUnavailable})

	rec, resp := invoke(t, srv.Handler(), "get-token-price", Arguments{Token: "MintA"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	msg, ok := resp.Result.(string)
	if !ok || !strings.Contains(msg, "retry later") {
		t.Errorf("result = %v, want retry message", resp.Result)
	}
}

func TestHandleInvoke_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	req := httptest.NewRequest(http.MethodGet, "/invoke", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleWS_Invoke(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{price: 1.5})

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	err = conn.WriteJSON(invokeRequest{
		ID:        "req-1",
		Name:      "get-token-price",
		Arguments: Arguments{Token: "MintA"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var resp invokeResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}

	if resp.ID != "req-1" {
		t.Errorf("id = %s, want req-1", resp.ID)
	}
	if price, ok := resp.Result.(float64); !ok || price != 1.5 {
		t.Errorf("result = %v, want 1.5", resp.Result)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(stub.New(), &resolverStub{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
