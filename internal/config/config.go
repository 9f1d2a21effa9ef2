package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port            string
	DBPath          string
	CORSOrigin      string
	GatewayBaseURL  string
	GatewayUsername string
	GatewayAPIKey   string
	PollInterval    time.Duration
	PollConcurrency int
	BalanceInterval time.Duration
	MarkupPercent   decimal.Decimal
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && !d.IsNegative() {
			return d
		}
	}
	d, _ := decimal.NewFromString(def)
	return d
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getenv("PORT", "8080"),
		DBPath:          getenv("DB_PATH", "ppob.db"),
		CORSOrigin:      getenv("CORS_ORIGIN", "http://localhost:5173"),
		GatewayBaseURL:  getenv("GATEWAY_BASE_URL", "https://api.digiflazz.com/v1"),
		GatewayUsername: getenv("GATEWAY_USERNAME", ""),
		GatewayAPIKey:   getenv("GATEWAY_API_KEY", ""),
		PollInterval:    time.Duration(getInt("POLL_INTERVAL_SECONDS", 60)) * time.Second,
		PollConcurrency: getInt("POLL_CONCURRENCY", 4),
		BalanceInterval: time.Duration(getInt("BALANCE_INTERVAL_SECONDS", 300)) * time.Second,
		MarkupPercent:   getDecimal("MARKUP_PERCENT", "4"),
	}
}
