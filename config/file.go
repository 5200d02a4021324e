package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file. A missing file yields an
// empty map.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.endpoint", "rpc":
		cfg.RPC.Endpoint = value
	case "rpc.timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Wallet
	case "wallet.encrypt":
		cfg.Wallet.Encrypt = parseBool(value)
	case "wallet.settle_delay":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.Wallet.SettleDelay = d

	// History
	case "history.limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.History.Limit = n
	case "history.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.History.Concurrency = n

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseDuration accepts Go duration syntax or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Octra wallet client configuration
#
# Command-line flags override these values.

# Data directory (default: ~/.octra)
# datadir = ~/.octra

# ============================================================================
# Node
# ============================================================================

# Endpoint used for newly created wallets. An existing wallet keeps the
# endpoint stored with it (change it with "octra-cli wallet set-rpc").
rpc.endpoint = ` + DefaultEndpoint + `

# Request timeout (Go duration or seconds)
rpc.timeout = 10s

# ============================================================================
# Wallet
# ============================================================================

# Encrypt the secret key with a password when creating or importing
wallet.encrypt = false

# Wait after a send before refreshing balance, nonce and history
wallet.settle_delay = 2s

# ============================================================================
# History
# ============================================================================

history.limit = 20
history.concurrency = 8

# ============================================================================
# Logging
# ============================================================================

log.level = warn
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
