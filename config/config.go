// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Chain rules: token, allocations and staking parameters, fixed in genesis
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
// Chain rules live in the genesis, not here.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`
	Genesis string      `conf:"genesis"` // Optional genesis JSON; built-in genesis when empty

	// RPC server
	RPC RPCConfig

	// Block production
	Producer ProducerConfig

	// Pending message pool
	Mempool MempoolConfig

	// Prometheus metrics
	Metrics MetricsConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// ProducerConfig holds block production settings.
type ProducerConfig struct {
	Enabled     bool          `conf:"producer.enabled"`
	Interval    time.Duration `conf:"producer.interval"`
	MaxMessages int           `conf:"producer.maxmsgs"`
}

// MempoolConfig holds pending message pool settings.
type MempoolConfig struct {
	MaxSize int `conf:"mempool.maxsize"`
}

// MetricsConfig holds prometheus settings. Metrics are served by the RPC
// server at /metrics.
type MetricsConfig struct {
	Enabled bool `conf:"metrics.enabled"`
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
//	Linux:   ~/.klingstake
//	macOS:   ~/Library/Application Support/Klingstake
//	Windows: %APPDATA%\Klingstake
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingstake"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingstake")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingstake")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingstake")
	default:
		return filepath.Join(home, ".klingstake")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StateDir returns the state database directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.ChainDataDir(), "state")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingstake.conf")
}

// LoadGenesisFor returns the genesis file named by the config, or the
// built-in genesis for the configured network.
func (c *Config) LoadGenesisFor() (*Genesis, error) {
	if c.Genesis != "" {
		return LoadGenesis(c.Genesis)
	}
	return GenesisFor(c.Network), nil
}
