package config

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/octra-wallet/internal/rpcclient"
)

// Upper bounds for history settings.
const (
	MaxHistoryLimit = 1000
	MaxConcurrency  = 64
)

// Validate checks client config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	if err := rpcclient.ValidateEndpoint(cfg.RPC.Endpoint); err != nil {
		return fmt.Errorf("rpc.endpoint: %w", err)
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}
	if cfg.Wallet.SettleDelay < 0 {
		return fmt.Errorf("wallet.settle_delay must not be negative")
	}
	if cfg.History.Limit < 1 || cfg.History.Limit > MaxHistoryLimit {
		return fmt.Errorf("history.limit must be in range [1, %d]", MaxHistoryLimit)
	}
	if cfg.History.Concurrency < 1 || cfg.History.Concurrency > MaxConcurrency {
		return fmt.Errorf("history.concurrency must be in range [1, %d]", MaxConcurrency)
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	switch cfg.Log.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off":
	default:
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
