// Package config loads runtime configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"solana-wallet-lens/internal/solana"
)

// Well-known mainnet constants used as defaults.
const (
	DefaultRPCEndpoint   = "https://api.mainnet-beta.solana.com"
	DefaultQuoteAPIURL   = "https://api.jup.ag/price/v2"
	DefaultSolMint       = "So11111111111111111111111111111111111111112"
	DefaultUSDCMint      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	DefaultPumpProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// Config holds all runtime settings.
type Config struct {
	RPCEndpoint   string
	QuoteAPIURL   string
	SolMint       string
	USDCMint      string
	PumpProgramID string
	SolDecimals   int
	TokenDecimals int
	PageLimit     int
	Concurrency   int64
	BotTxLimit    int
	HistoryWindow time.Duration
	ListenAddr    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first without overriding already-set variables.
func Load() (*Config, error) {
	// Missing .env is fine; the environment alone is a valid source.
	_ = godotenv.Load()

	cfg := &Config{
		RPCEndpoint:   getenv("SOLANA_RPC_ENDPOINT", DefaultRPCEndpoint),
		QuoteAPIURL:   getenv("QUOTE_API_URL", DefaultQuoteAPIURL),
		SolMint:       getenv("SOL_MINT", DefaultSolMint),
		USDCMint:      getenv("USDC_MINT", DefaultUSDCMint),
		PumpProgramID: getenv("PUMP_PROGRAM_ID", DefaultPumpProgramID),
		ListenAddr:    getenv("LISTEN_ADDR", ":3005"),
	}

	var err error
	if cfg.SolDecimals, err = getenvInt("SOL_DECIMALS", 9); err != nil {
		return nil, err
	}
	if cfg.TokenDecimals, err = getenvInt("TOKEN_DECIMALS", 6); err != nil {
		return nil, err
	}
	if cfg.PageLimit, err = getenvInt("PAGE_LIMIT", 1000); err != nil {
		return nil, err
	}
	concurrency, err := getenvInt("CONCURRENCY", 100)
	if err != nil {
		return nil, err
	}
	cfg.Concurrency = int64(concurrency)
	if cfg.BotTxLimit, err = getenvInt("BOT_TX_LIMIT", 200); err != nil {
		return nil, err
	}
	if cfg.HistoryWindow, err = getenvDuration("HISTORY_WINDOW", 168*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, key := range map[string]string{
		"SOL_MINT":        c.SolMint,
		"USDC_MINT":       c.USDCMint,
		"PUMP_PROGRAM_ID": c.PumpProgramID,
	} {
		if _, err := solana.DecodePubkey(key); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.PageLimit <= 0 || c.PageLimit > 1000 {
		return fmt.Errorf("PAGE_LIMIT must be in 1..1000, got %d", c.PageLimit)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if c.BotTxLimit <= 0 {
		return fmt.Errorf("BOT_TX_LIMIT must be positive, got %d", c.BotTxLimit)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %v", c.HistoryWindow)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
