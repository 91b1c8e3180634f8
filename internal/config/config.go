package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything aria reads from its config file.
type Config struct {
	ServerURL    string
	PollInterval time.Duration
	DataDir      string
	Theme        string

	StreamBackoffBase    time.Duration
	StreamBackoffCeiling time.Duration

	BootstrapInitialDelay time.Duration
	BootstrapMaxDelay     time.Duration
	BootstrapMaxRetries   uint64
}

const (
	defaultConfigPath = "~/.config/aria/config.toml"
	defaultDataDir    = "~/.local/share/aria"
	defaultServerURL  = "http://127.0.0.1:8686"

	defaultPollSeconds = 10
)

// Load locates and parses the aria config, falling back to defaults when the
// file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL   string `toml:"server_url"`
		PollSeconds int    `toml:"poll_seconds"`
		DataDir     string `toml:"data_dir"`
		Theme       string `toml:"theme"`
		Stream      struct {
			BackoffBaseMS    int `toml:"backoff_base_ms"`
			BackoffCeilingMS int `toml:"backoff_ceiling_ms"`
		} `toml:"stream"`
		Bootstrap struct {
			InitialDelayMS int  `toml:"initial_delay_ms"`
			MaxDelayMS     int  `toml:"max_delay_ms"`
			MaxRetries     *int `toml:"max_retries"`
		} `toml:"bootstrap"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if s := strings.TrimSpace(raw.ServerURL); s != "" {
		cfg.ServerURL = s
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if s := strings.TrimSpace(raw.DataDir); s != "" {
		cfg.DataDir = s
	}
	if s := strings.TrimSpace(raw.Theme); s != "" {
		cfg.Theme = s
	}
	cfg.DataDir = mustExpand(cfg.DataDir)

	if raw.Stream.BackoffBaseMS > 0 {
		cfg.StreamBackoffBase = time.Duration(raw.Stream.BackoffBaseMS) * time.Millisecond
	}
	if raw.Stream.BackoffCeilingMS > 0 {
		cfg.StreamBackoffCeiling = time.Duration(raw.Stream.BackoffCeilingMS) * time.Millisecond
	}
	if raw.Bootstrap.InitialDelayMS > 0 {
		cfg.BootstrapInitialDelay = time.Duration(raw.Bootstrap.InitialDelayMS) * time.Millisecond
	}
	if raw.Bootstrap.MaxDelayMS > 0 {
		cfg.BootstrapMaxDelay = time.Duration(raw.Bootstrap.MaxDelayMS) * time.Millisecond
	}
	if raw.Bootstrap.MaxRetries != nil && *raw.Bootstrap.MaxRetries >= 0 {
		cfg.BootstrapMaxRetries = uint64(*raw.Bootstrap.MaxRetries)
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		ServerURL:             defaultServerURL,
		PollInterval:          defaultPollSeconds * time.Second,
		DataDir:               mustExpand(defaultDataDir),
		Theme:                 "aria-dark",
		StreamBackoffBase:     3 * time.Second,
		StreamBackoffCeiling:  30 * time.Second,
		BootstrapInitialDelay: time.Second,
		BootstrapMaxDelay:     16 * time.Second,
		BootstrapMaxRetries:   5,
	}
}

// SessionDBPath returns the path of the persisted session store.
func (c Config) SessionDBPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// LogPath returns the path of the application log file.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "aria.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
