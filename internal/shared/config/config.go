package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the service, loaded once from the
// environment (.env supported in dev)
type Config struct {
	HTTPAddr string

	// ledger substrate settings
	LedgerFee      uint64        // flat fee charged per outer transaction
	EscrowSeed     uint64        // payment sent to the escrow during setup to cover its reserve
	ConfirmTimeout time.Duration // bound for waiting a submitted group confirmation
	SweepResidual  bool          // sweep leftover escrow funds to the creator at close
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the singleton Config instance, same pattern as the logger
func GetConfig() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			HTTPAddr:       getEnv("HTTP_ADDR", ":9000"),
			LedgerFee:      getEnvUint("LEDGER_FEE", 1_000),
			EscrowSeed:     getEnvUint("ESCROW_SEED", 200_000),
			ConfirmTimeout: getEnvDuration("CONFIRM_TIMEOUT", 10*time.Second),
			SweepResidual:  getEnvBool("SWEEP_RESIDUAL", true),
		}
	})
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
