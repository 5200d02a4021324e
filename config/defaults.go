package config

import "time"

// Default values.
const (
	DefaultEndpoint     = "https://octra.network"
	DefaultTimeout      = 10 * time.Second
	DefaultSettleDelay  = 2 * time.Second
	DefaultHistoryLimit = 20
	DefaultConcurrency  = 8
)

// Default returns the default client configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Endpoint: DefaultEndpoint,
			Timeout:  DefaultTimeout,
		},
		Wallet: WalletConfig{
			Encrypt:     false,
			SettleDelay: DefaultSettleDelay,
		},
		History: HistoryConfig{
			Limit:       DefaultHistoryLimit,
			Concurrency: DefaultConcurrency,
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}
