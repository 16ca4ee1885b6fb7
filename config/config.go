// Package config loads engine configuration from environment variables
// (optionally via a .env file), mirroring the teacher's env-var-with-
// defaults convention rather than a TOML/viper layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every recognized option from spec.md §6, all optional with
// documented defaults.
type Config struct {
	RPCURL             string
	HeliusAPIKey       string
	WalletPath         string
	SlippageBps        int
	UseJito            bool
	JitoTipLamports    int64
	PriorityFeeLamports int64

	GradMinProgress float64
	GradMinHolders  int
	GradMinSOL      decimal.Decimal
	TrackDevWallets bool
	PollIntervalMs  int

	PositionSizeUSD     decimal.Decimal
	MaxPositions        int
	TakeProfitPct       float64
	StopLossPct         float64
	TrailingStopPct     float64
	TrailingActivatePct float64
	MaxHoldSeconds      int
	ExitOnDevSell       bool
	MaxInitialMcapUSD   decimal.Decimal

	PaperBalanceUSD decimal.Decimal
	WatchTokens     []string

	TelegramToken  string
	TelegramChatID int64
	DatabaseURL    string
}

// Load reads a .env file if present (missing is not an error) and then
// populates Config from the environment, applying the documented default
// for every option left unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	cfg := &Config{
		RPCURL:              getEnv("RPC_URL", "https://api.mainnet-beta.solana.com"),
		HeliusAPIKey:        os.Getenv("HELIUS_API_KEY"),
		WalletPath:          getEnv("WALLET_PATH", "wallet.json"),
		SlippageBps:         getEnvInt("SLIPPAGE_BPS", 100),
		UseJito:             getEnvBool("USE_JITO", false),
		JitoTipLamports:     getEnvInt64("JITO_TIP_LAMPORTS", 10000),
		PriorityFeeLamports: getEnvInt64("PRIORITY_FEE_LAMPORTS", 5000),

		GradMinProgress: getEnvFloat("GRAD_MIN_PROGRESS", 100.0),
		GradMinHolders:  getEnvInt("GRAD_MIN_HOLDERS", 20),
		GradMinSOL:      getEnvDecimal("GRAD_MIN_SOL", decimal.NewFromFloat(85)),
		TrackDevWallets: getEnvBool("TRACK_DEV_WALLETS", true),
		PollIntervalMs:  getEnvInt("POLL_INTERVAL_MS", 1000),

		PositionSizeUSD:     getEnvDecimal("POSITION_SIZE_USD", decimal.NewFromFloat(50)),
		MaxPositions:        getEnvInt("MAX_POSITIONS", 5),
		TakeProfitPct:       getEnvFloat("TAKE_PROFIT_PCT", 0.50),
		StopLossPct:         getEnvFloat("STOP_LOSS_PCT", 0.20),
		TrailingStopPct:     getEnvFloat("TRAILING_STOP_PCT", 0.15),
		TrailingActivatePct: getEnvFloat("TRAILING_ACTIVATE_PCT", 0.30),
		MaxHoldSeconds:      getEnvInt("MAX_HOLD_SECONDS", 3600),
		ExitOnDevSell:       getEnvBool("EXIT_ON_DEV_SELL", true),
		MaxInitialMcapUSD:   getEnvDecimal("MAX_INITIAL_MCAP_USD", decimal.NewFromFloat(1000000)),

		PaperBalanceUSD: getEnvDecimal("PAPER_BALANCE_USD", decimal.NewFromFloat(1000)),
		WatchTokens:     getEnvList("WATCH_TOKENS"),

		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1" || v == "yes"
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(v, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
