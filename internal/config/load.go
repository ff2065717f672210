package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Bot       BotConfig       `json:"bot"`
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	Detection DetectionConfig `json:"detection"`
	Network   NetworkConfig   `json:"network"`
	Reports   ReportsConfig   `json:"reports"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type BotConfig struct {
	Token    string `json:"token" validate:"required"`
	ClientID string `json:"client_id"`
	// RegisterCommands registers the /antiraid command on startup.
	RegisterCommands bool `json:"register_commands"`
	// HandlerTimeoutMs bounds one event handler invocation, platform calls included.
	HandlerTimeoutMs int `json:"handler_timeout_ms" validate:"min=100"`
}

type DatabaseConfig struct {
	Path string `json:"path" validate:"required"`
}

type LoggingConfig struct {
	Level string `json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Path  string `json:"path"`
}

type DetectionConfig struct {
	Enabled       bool   `json:"enabled"`
	ThresholdFile string `json:"threshold_file"`
	// SpamTimeoutSeconds is how long a flooding member is timed out.
	SpamTimeoutSeconds  int `json:"spam_timeout_seconds" validate:"min=1,max=2419200"`
	AttributionCacheMs  int `json:"attribution_cache_ms" validate:"min=0"`
	SweepIntervalSecond int `json:"sweep_interval_seconds" validate:"min=1"`
}

type NetworkConfig struct {
	HTTPPoolSize     int    `json:"http_pool_size" validate:"min=1,max=64"`
	APIBaseURL       string `json:"api_base_url" validate:"required,url"`
	RequestTimeoutMs int    `json:"request_timeout_ms" validate:"min=100"`
}

type ReportsConfig struct {
	// PerGuildPerMinute caps reports posted to one guild's log channel.
	PerGuildPerMinute int  `json:"per_guild_per_minute" validate:"min=1"`
	Burst             int  `json:"burst" validate:"min=1"`
	Archive           bool `json:"archive"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr" validate:"required_if=Enabled true"`
}

func (c *Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Bot.HandlerTimeoutMs) * time.Millisecond
}

func (c *Config) SpamTimeout() time.Duration {
	return time.Duration(c.Detection.SpamTimeoutSeconds) * time.Second
}

func (c *Config) AttributionCacheTTL() time.Duration {
	return time.Duration(c.Detection.AttributionCacheMs) * time.Millisecond
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Detection.SweepIntervalSecond) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Network.RequestTimeoutMs) * time.Millisecond
}

var validate = validator.New()

// Validate checks the config after env overrides have been applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a JSON config file on top of the defaults and applies env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ApplyEnv(cfg)
	return cfg, nil
}

// LoadOrDefault falls back to defaults (plus env) when the file is missing or unreadable.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		cfg = DefaultConfig()
		ApplyEnv(cfg)
		return cfg, err
	}
	return cfg, nil
}

func ApplyEnv(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		cfg.Bot.ClientID = clientID
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
		cfg.Metrics.Enabled = true
	}
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			RegisterCommands: true,
			HandlerTimeoutMs: 15000,
		},
		Database: DatabaseConfig{
			Path: "raidguard.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "raidguard.log",
		},
		Detection: DetectionConfig{
			Enabled:             true,
			SpamTimeoutSeconds:  10,
			AttributionCacheMs:  2000,
			SweepIntervalSecond: 30,
		},
		Network: NetworkConfig{
			HTTPPoolSize:     4,
			APIBaseURL:       "https://discord.com/api/v10",
			RequestTimeoutMs: 5000,
		},
		Reports: ReportsConfig{
			PerGuildPerMinute: 30,
			Burst:             10,
			Archive:           true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9102",
		},
	}
}
