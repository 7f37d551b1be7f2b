// Package config handles runtime configuration for the chain index tooling.
//
// Configuration is split into two categories:
//   - Chain policy: genesis hash, coinbase maturity — must match the network
//     the index tracks
//   - Node settings: data directory, logging — can vary per machine
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds runtime configuration for the chain index store and CLI.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Chain policy
	Chain ChainConfig

	// Logging
	Log LogConfig
}

// ChainConfig holds chain policy settings. These are properties of the
// network being tracked, not of this machine; they must agree with every
// other observer of the same chain.
type ChainConfig struct {
	// GenesisHash is the hex-encoded hash of the block at height 0, used by
	// the CLI's init when no hash is given. Initialize refuses a genesis that
	// disagrees with one already stored; opening an existing index does not
	// compare against this value.
	GenesisHash string `conf:"chain.genesis"`

	// CoinbaseMaturity is the number of confirmations a coinbase output
	// needs before it is spendable.
	CoinbaseMaturity uint32 `conf:"chain.coinbase_maturity"`

	// Birthday is the height below which the index does not care about
	// history, e.g. a wallet's recovery height. Zero means full history.
	Birthday uint32 `conf:"chain.birthday"`
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
//	Linux:   ~/.klingnet-chainindex
//	macOS:   ~/Library/Application Support/KlingnetChainIndex
//	Windows: %APPDATA%\KlingnetChainIndex
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-chainindex"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetChainIndex")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetChainIndex")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetChainIndex")
	default:
		return filepath.Join(home, ".klingnet-chainindex")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// IndexDir returns the chain index database directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.ChainDataDir(), "index")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "chainindex.conf")
}
