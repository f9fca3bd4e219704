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

// Config holds everything brickview reads from config.toml.
type Config struct {
	APIBase        string
	PollInterval   time.Duration
	Indicator      time.Duration
	RequestTimeout time.Duration
	CatalogFile    string
	CacheDB        string
	LogFile        string
	UploadURL      string
	PlayerCommand  []string
}

const (
	defaultConfigPath     = "~/.config/brickview/config.toml"
	defaultAPIBase        = "http://127.0.0.1:5001"
	defaultPollInterval   = 2000 * time.Millisecond
	defaultIndicator      = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultCacheDB        = "~/.cache/brickview/photos.db"
	defaultLogFile        = "~/.local/state/brickview/brickview.log"

	// cacheOff disables the photo cache when set as cache_db.
	cacheOff = "off"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		PollInterval:   defaultPollInterval,
		Indicator:      defaultIndicator,
		RequestTimeout: defaultRequestTimeout,
		CacheDB:        mustExpand(defaultCacheDB),
		LogFile:        mustExpand(defaultLogFile),
	}
}

// CacheEnabled reports whether a photo cache path is configured.
func (c Config) CacheEnabled() bool {
	return strings.TrimSpace(c.CacheDB) != ""
}

// Load locates and parses the brickview config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

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
		APIBase        string `toml:"api_base"`
		PollIntervalMS int    `toml:"poll_interval_ms"`
		IndicatorSecs  int    `toml:"indicator_seconds"`
		TimeoutSecs    int    `toml:"request_timeout_seconds"`
		CatalogFile    string `toml:"catalog_file"`
		CacheDB        string `toml:"cache_db"`
		LogFile        string `toml:"log_file"`
		UploadURL      string `toml:"upload_url"`
		PlayerCommand  string `toml:"player_command"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if raw.PollIntervalMS < 0 || raw.IndicatorSecs < 0 || raw.TimeoutSecs < 0 {
		return Config{}, fmt.Errorf("parse config: durations must not be negative")
	}
	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.IndicatorSecs > 0 {
		cfg.Indicator = time.Duration(raw.IndicatorSecs) * time.Second
	}
	if raw.TimeoutSecs > 0 {
		cfg.RequestTimeout = time.Duration(raw.TimeoutSecs) * time.Second
	}
	if v := strings.TrimSpace(raw.CatalogFile); v != "" {
		cfg.CatalogFile = mustExpand(v)
	}
	switch v := strings.TrimSpace(raw.CacheDB); {
	case strings.EqualFold(v, cacheOff):
		cfg.CacheDB = ""
	case v != "":
		cfg.CacheDB = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	cfg.UploadURL = strings.TrimSpace(raw.UploadURL)
	cfg.PlayerCommand = strings.Fields(raw.PlayerCommand)

	return cfg, nil
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

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
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
