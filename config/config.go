package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-sustain/plugin"
)

var ErrInvalid = errors.New("invalid config")

// UIConfig stores UI layout. This is the only persisted state; the engine
// always starts with no notes held and sustain off.
type UIConfig struct {
	Compact bool `json:"compact,omitempty"`
	ShowLog bool `json:"showLog,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Input           string   `json:"input,omitempty"`  // input port name or substring
	Output          string   `json:"output,omitempty"` // output port name or substring
	FollowPedal     bool     `json:"followPedal"`
	BlockMillis     int      `json:"blockMillis,omitempty"`
	ReleaseVelocity uint8    `json:"releaseVelocity"`
	Mode            string   `json:"mode,omitempty"`
	LogLevel        string   `json:"logLevel,omitempty"`
	LogFile         string   `json:"logFile,omitempty"`
	UI              UIConfig `json:"ui"`

	path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FollowPedal: true,
		BlockMillis: 5,
		Mode:        plugin.ModeSustain.String(),
		LogLevel:    "info",
		UI: UIConfig{
			ShowLog: true,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-sustain"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default location, or returns defaults if
// not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file yields defaults that
// will be saved to path.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.BlockMillis < 1 || c.BlockMillis > 1000 {
		return fmt.Errorf("%w: blockMillis %d out of range 1-1000", ErrInvalid, c.BlockMillis)
	}
	if c.ReleaseVelocity > 127 {
		return fmt.Errorf("%w: releaseVelocity %d out of range 0-127", ErrInvalid, c.ReleaseVelocity)
	}
	if _, err := plugin.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ProcessorMode returns the parsed Mode
func (c *Config) ProcessorMode() plugin.Mode {
	m, _ := plugin.ParseMode(c.Mode)
	return m
}

// Path is where Save writes
func (c *Config) Path() string {
	return c.path
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = ConfigPath(); err != nil {
			return err
		}
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
