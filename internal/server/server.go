// Package server exposes the wallet analytics as named tools over HTTP and
// WebSocket transports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-wallet-lens/internal/analytics"
	"solana-wallet-lens/internal/observability"
	"solana-wallet-lens/internal/pricing"
)

// PriceResolver resolves a token's current price.
type PriceResolver interface {
	TokenPrice(ctx context.Context, mint string) (float64, error)
}

// Options configures a Server.
type Options struct {
	Engine   *analytics.Engine
	Resolver PriceResolver
	Logger   logrus.FieldLogger
}

// Server dispatches tool invocations to the analytics engine and price
// resolver.
type Server struct {
	registry *Registry
	engine   *analytics.Engine
	resolver PriceResolver
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// New creates a Server with every tool registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	s := &Server{
		registry: NewRegistry(),
		engine:   opts.Engine,
		resolver: opts.Resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: opts.Logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.registry.Register(Tool{
		Name:        "calculate-total-profit",
		Description: "Calculate total profit of the given wallet address for the last 7 days.",
		InputSchema: walletSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			return s.engine.TotalProfit(ctx, args.WalletAddress)
		},
	})
	s.registry.Register(Tool{
		Name:        "get-purchased-tokens",
		Description: "Fetch the list of tokens purchased by the given wallet address in the last 7 days.",
		InputSchema: walletSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			tokens, err := s.engine.PurchasedTokens(ctx, args.WalletAddress)
			if err != nil {
				return nil, err
			}
			if tokens == nil {
				tokens = []string{}
			}
			return tokens, nil
		},
	})
	s.registry.Register(Tool{
		Name:        "calculate-profit-per-token",
		Description: "Calculate the profit for a specific token traded by the given wallet address in the last 7 days.",
		InputSchema: walletTokenSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			return s.engine.ProfitPerToken(ctx, args.WalletAddress, args.Token)
		},
	})
	s.registry.Register(Tool{
		Name:        "calculate-profit-for-each-token",
		Description: "Calculate the profit for each token traded by the given wallet address in the last 7 days.",
		InputSchema: walletSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			return s.engine.ProfitForEachToken(ctx, args.WalletAddress)
		},
	})
	s.registry.Register(Tool{
		Name:        "calculate-win-rate",
		Description: "Calculate the win rate of the given wallet address based on its trading activity in the last 7 days.",
		InputSchema: walletSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			return s.engine.WinRate(ctx, args.WalletAddress)
		},
	})
	s.registry.Register(Tool{
		Name:        "is-bot-trading",
		Description: "Check if the given wallet address exhibits bot-like trading behavior based on recent transactions.",
		InputSchema: walletSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			report := s.engine.BotActivity(ctx, args.WalletAddress)
			if report.Indeterminate {
				return fmt.Sprintf(
					"Can not determine whether it is a bot, because the transaction history of %s is empty.",
					args.WalletAddress), nil
			}
			return report.Bot, nil
		},
	})
	s.registry.Register(Tool{
		Name:        "get-token-price",
		Description: "Get the current price of a specific token by its mint address. The price is calculated either from an exchange or based on the bonding curve data, depending on the token's state.",
		InputSchema: tokenSchema,
		handler: func(ctx context.Context, args Arguments) (interface{}, error) {
			price, err := s.resolver.TokenPrice(ctx, args.Token)
			switch {
			case errors.Is(err, pricing.ErrCurveStateUnknown):
				return fmt.Sprintf(
					"Cannot get price of %s, because the state of its bonding curve can not be determined.",
					args.Token), nil
			case errors.Is(err, pricing.ErrQuoteUnavailable):
				return fmt.Sprintf("Can not get price of %s, pls retry later", args.Token), nil
			case err != nil:
				return nil, err
			}
			return price, nil
		},
	})
}

// Handler returns the HTTP routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/invoke", s.handleInvoke)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	return mux
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": s.registry.List()})
}

// invokeRequest is the body of POST /invoke and of each WebSocket message.
type invokeRequest struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

type invokeResponse struct {
	ID     string      `json:"id,omitempty"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, invokeResponse{Error: "invalid request body"})
		return
	}

	resp, status := s.invoke(r.Context(), req)
	writeJSON(w, status, resp)
}

// invoke runs one tool call and maps the outcome to a response. Dispatch
// failures are the caller's fault; tool failures are upstream conditions.
func (s *Server) invoke(ctx context.Context, req invokeRequest) (invokeResponse, int) {
	result, err := s.registry.Invoke(ctx, req.Name, req.Arguments)
	if err != nil {
		status := http.StatusBadGateway
		if _, known := s.registry.tools[req.Name]; !known {
			status = http.StatusNotFound
		}
		observability.RecordToolInvocation(req.Name, "error")
		s.log.WithFields(logrus.Fields{
			"tool":   req.Name,
			"wallet": req.Arguments.WalletAddress,
		}).WithError(err).Warn("tool invocation failed")
		return invokeResponse{ID: req.ID, Error: err.Error()}, status
	}

	observability.RecordToolInvocation(req.Name, "ok")
	return invokeResponse{ID: req.ID, Result: result}, http.StatusOK
}

// handleWS serves tool invocations over a WebSocket connection. Each text
// message is one invokeRequest; responses carry the request's id so callers
// may pipeline.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req invokeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Debug("websocket read failed")
			}
			return
		}

		resp, _ := s.invoke(r.Context(), req)
		if err := conn.WriteJSON(resp); err != nil {
			s.log.WithError(err).Debug("websocket write failed")
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
