// Package config loads kbchat settings from defaults, an optional TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultTopK is the number of passages requested per question.
const DefaultTopK = 8

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL        string
	ClientTimeout time.Duration
	SlowRequest   time.Duration
	TopK          int

	// Local state (credential store)
	StateFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the TOML layout of config.toml.
type fileConfig struct {
	APIURL        string `toml:"api_url"`
	ClientTimeout string `toml:"client_timeout"`
	SlowRequest   string `toml:"slow_request"`
	TopK          int    `toml:"top_k"`
	StateFile     string `toml:"state_file"`
	Log           struct {
		File  string `toml:"file"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir := defaultDir()
	return Config{
		APIURL:        "http://localhost:8000",
		ClientTimeout: 5 * time.Minute, // answer generation runs an LLM on the backend
		SlowRequest:   2 * time.Second,
		TopK:          DefaultTopK,
		StateFile:     filepath.Join(dir, "state.yaml"),
		LogFile:       filepath.Join(os.TempDir(), "kbchat.log"),
		LogLevel:      slog.LevelInfo,
	}
}

// DefaultPath returns the location of config.toml.
func DefaultPath() string {
	if p := os.Getenv("KBCHAT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultDir(), "config.toml")
}

// Load reads configuration from the default file location and the environment.
// A missing config file is not an error.
func Load() (Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads configuration from path, then applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := applyFile(&cfg, data); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.APIURL != "" {
		cfg.APIURL = fc.APIURL
	}
	if fc.ClientTimeout != "" {
		d, err := time.ParseDuration(fc.ClientTimeout)
		if err != nil {
			return fmt.Errorf("client_timeout: %w", err)
		}
		cfg.ClientTimeout = d
	}
	if fc.SlowRequest != "" {
		d, err := time.ParseDuration(fc.SlowRequest)
		if err != nil {
			return fmt.Errorf("slow_request: %w", err)
		}
		cfg.SlowRequest = d
	}
	if fc.TopK != 0 {
		if fc.TopK < 1 {
			return fmt.Errorf("top_k must be at least 1, got %d", fc.TopK)
		}
		cfg.TopK = fc.TopK
	}
	if fc.StateFile != "" {
		cfg.StateFile = fc.StateFile
	}
	if fc.Log.File != "" {
		cfg.LogFile = fc.Log.File
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = parseLogLevel(fc.Log.Level)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.APIURL = strings.TrimRight(getEnv("KBCHAT_API_URL", cfg.APIURL), "/")
	cfg.StateFile = getEnv("KBCHAT_STATE_FILE", cfg.StateFile)
	cfg.LogFile = getEnv("KBCHAT_LOG_FILE", cfg.LogFile)

	if v := os.Getenv("KBCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv("KBCHAT_CLIENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KBCHAT_CLIENT_TIMEOUT: %w", err)
		}
		cfg.ClientTimeout = d
	}
	if v := os.Getenv("KBCHAT_TOP_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("KBCHAT_TOP_K must be a positive integer, got %q", v)
		}
		cfg.TopK = n
	}
	return nil
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "kbchat")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
