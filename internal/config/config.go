// Package config loads pawnshop settings from a YAML file and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pawnshop configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Game    GameConfig    `yaml:"game"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Entropy EntropyConfig `yaml:"entropy"`
}

// LLMConfig configures the model gateway.
type LLMConfig struct {
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`       // Override for proxies and tests
	Timeout      string `yaml:"timeout"`        // Per call, e.g. "45s". Empty = none
	MaxPerMinute int    `yaml:"max_per_minute"` // Client-side call budget. 0 = unlimited
}

// GameConfig sets up a fresh game.
type GameConfig struct {
	StartingCash int    `yaml:"starting_cash"`
	PlayerName   string `yaml:"player_name"`
	AvatarStyle  string `yaml:"avatar_style"`
	AvatarSeed   string `yaml:"avatar_seed"`
	SaveKey      string `yaml:"save_key"`
}

// StorageConfig selects the save backend.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mongo
	Path     string `yaml:"path"`
	MongoURI string `yaml:"mongo_uri"`
	Database string `yaml:"database"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	CustomersPerHr int      `yaml:"customers_per_hour"` // Per IP
	MessagesPerHr  int      `yaml:"messages_per_hour"`  // Per IP
	CORSOrigins    []string `yaml:"cors_origins"`
	FeedSize       int      `yaml:"feed_size"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// EntropyConfig selects the randomness source.
type EntropyConfig struct {
	RandomOrgAPIKey string `yaml:"random_org_api_key"`
	Seed            int64  `yaml:"seed"` // Non-zero = deterministic game
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:        "gemini-1.5-flash-latest",
			Timeout:      "60s",
			MaxPerMinute: 15,
		},
		Game: GameConfig{
			StartingCash: 1000,
			PlayerName:   "Player",
			AvatarStyle:  "pixel-art",
			AvatarSeed:   "player-default",
			SaveKey:      "pawnShopSave",
		},
		Storage: StorageConfig{
			Driver:   "sqlite",
			Path:     "pawnshop.db",
			Database: "pawnshop",
		},
		Server: ServerConfig{
			Port:           8080,
			CustomersPerHr: 30,
			MessagesPerHr:  300,
			FeedSize:       500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("PAWNSHOP_DB"); path != "" {
		c.Storage.Path = path
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		c.Storage.MongoURI = uri
		if c.Storage.Driver == "" || c.Storage.Driver == "sqlite" {
			c.Storage.Driver = "mongo"
		}
	}
	if port := os.Getenv("PAWNSHOP_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}
	if key := os.Getenv("RANDOM_ORG_API_KEY"); key != "" {
		c.Entropy.RandomOrgAPIKey = key
	}
	if level := os.Getenv("PAWNSHOP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
}

// GetLLMTimeout returns the per-call model timeout, or 0 for none.
func (c *Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// SlogLevel maps the configured level name to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate checks the configuration for values the game cannot run with.
// A missing API key is allowed: the gateway then reports the missing
// credential in place of every reply.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model must be set")
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	if c.LLM.MaxPerMinute < 0 {
		return fmt.Errorf("llm.max_per_minute must not be negative")
	}
	if c.Game.StartingCash < 0 {
		return fmt.Errorf("game.starting_cash must not be negative")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "", "sqlite":
	case "mongo", "mongodb":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongo driver (or set MONGODB_URI)")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (valid: sqlite, mongo)", c.Storage.Driver)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}
