// Package config handles client configuration.
//
// Settings are resolved in order: defaults, then the .conf file in the data
// directory, then command-line flags. The node endpoint stored with the
// wallet takes precedence over rpc.endpoint unless --rpc is given.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the client's runtime configuration.
type Config struct {
	DataDir string `conf:"datadir"`

	// Node transport
	RPC RPCConfig

	// Wallet
	Wallet WalletConfig

	// History refresh
	History HistoryConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds node transport settings.
type RPCConfig struct {
	Endpoint string        `conf:"rpc.endpoint"` // default for new wallets
	Timeout  time.Duration `conf:"rpc.timeout"`
}

// WalletConfig holds wallet settings.
type WalletConfig struct {
	Encrypt     bool          `conf:"wallet.encrypt"`      // prompt for a password on create/import
	SettleDelay time.Duration `conf:"wallet.settle_delay"` // wait before refreshing after a send
}

// HistoryConfig holds transaction history settings.
type HistoryConfig struct {
	Limit       int `conf:"history.limit"`
	Concurrency int `conf:"history.concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.octra
//	macOS:   ~/Library/Application Support/Octra
//	Windows: %APPDATA%\Octra
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".octra"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Octra")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Octra")
		}
		return filepath.Join(home, "AppData", "Roaming", "Octra")
	default:
		return filepath.Join(home, ".octra")
	}
}

// DBDir returns the wallet database directory.
func (c *Config) DBDir() string {
	return filepath.Join(c.DataDir, "db")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "octra.conf")
}
