// Package config loads the TOML configuration for cadenza.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration.
type Config struct {
	MPD    MPDConfig    `toml:"mpd"`
	Log    LogConfig    `toml:"log"`
	Bridge BridgeConfig `toml:"bridge"`
}

// MPDConfig locates the server and tunes the command channel.
type MPDConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	TimeoutMS      int64  `toml:"timeout_ms"`
	IdleDebounceMS int64  `toml:"idle_debounce_ms"`
}

// Timeout returns the per-command timeout.
func (c MPDConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IdleDebounce returns the delay before re-issuing the long-poll wait.
func (c MPDConfig) IdleDebounce() time.Duration {
	return time.Duration(c.IdleDebounceMS) * time.Millisecond
}

// LogConfig describes logging options.
type LogConfig struct {
	Level string `toml:"level"`
}

// BridgeConfig configures the MQTT change-event bridge.
type BridgeConfig struct {
	Broker         string `toml:"broker"`
	TopicBase      string `toml:"topic_base"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSCA          string `toml:"tls_ca"`
	TLSCert        string `toml:"tls_cert"`
	TLSKey         string `toml:"tls_key"`
	Embedded       bool   `toml:"embedded"`
	Listen         string `toml:"listen"`
	AllowAnonymous bool   `toml:"allow_anonymous"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MPD: MPDConfig{
			Host:           "localhost",
			Port:           6600,
			TimeoutMS:      5000,
			IdleDebounceMS: 100,
		},
		Log: LogConfig{Level: "warn"},
		Bridge: BridgeConfig{
			TopicBase:      "cadenza/v1",
			Listen:         "127.0.0.1:1883",
			AllowAnonymous: true,
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if info.IsDir() {
		return cfg, errors.New("config path is a directory")
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the default config location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cadenza", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cadenza", "config.toml"), nil
}
