// Package config reads and writes the global ~/.bubble/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults applied where config.toml leaves a field unset.
const (
	DefaultServerURL         = "ws://localhost:3001/ws"
	DefaultReconnectAttempts = 5
)

// Config is the global client configuration.
type Config struct {
	// ServerURL is the websocket endpoint of the chat server.
	ServerURL string `toml:"server_url"`
	// DefaultUser is the user ID signed in when --user is not given.
	DefaultUser string `toml:"default_user"`
	// ReconnectAttempts bounds the automatic reconnect loop.
	ReconnectAttempts int `toml:"reconnect_attempts"`
}

// Load reads config from the given path, filling defaults for unset
// fields. Returns an error if the file is missing or malformed.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = DefaultReconnectAttempts
	}
}

// Validate rejects configs the client cannot run with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: server_url is required")
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
