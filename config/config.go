// Package config loads the engine's JSON configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config holds all node configuration.
type Config struct {
	DataDir       string        `json:"data_dir"`
	RPCPort       int           `json:"rpc_port"`
	RPCAuthToken  string        `json:"rpc_auth_token,omitempty"` // empty → no auth
	TLS           *TLSConfig    `json:"tls,omitempty"`
	IndexDB       string        `json:"index_db"`       // sqlite path; relative to data_dir
	RoundInterval Duration      `json:"round_interval"` // 0 disables the round keeper
	Genesis       GenesisConfig `json:"genesis"`
	Economy       EconomyConfig `json:"economy"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:       "./data",
		RPCPort:       8545,
		IndexDB:       "history.db",
		RoundInterval: Duration(24 * time.Hour),
		Genesis: GenesisConfig{
			ChainID: "snakegame-dev",
			Alloc:   map[string]GenesisAlloc{},
		},
		Economy: DefaultEconomy(),
	}
}

// Load reads a JSON config file from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}
