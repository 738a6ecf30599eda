package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Tariffs  TariffsConfig  `koanf:"tariffs"`
	Cache    CacheConfig    `koanf:"cache"`
	Market   MarketConfig   `koanf:"market"`
	Timezone string         `koanf:"timezone"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type TariffsConfig struct {
	ConfigDir string `koanf:"config_dir"`
}

type CacheConfig struct {
	FlushInterval string `koanf:"flush_interval"` // parsed and validated on startup
}

type MarketConfig struct {
	Enabled        bool   `koanf:"enabled"`
	BaseURL        string `koanf:"base_url"`
	UpdateInterval string `koanf:"update_interval"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if strings.TrimSpace(c.Tariffs.ConfigDir) == "" {
		return fmt.Errorf("tariffs.config_dir is required")
	}
	if _, err := os.Stat(c.Tariffs.ConfigDir); err != nil {
		return fmt.Errorf("tariffs.config_dir %q is not accessible: %w", c.Tariffs.ConfigDir, err)
	}

	if _, err := c.CacheFlushInterval(); err != nil {
		return err
	}

	if c.Market.Enabled {
		if strings.TrimSpace(c.Market.BaseURL) == "" {
			return fmt.Errorf("market.base_url is required when market ingestion is enabled")
		}
		if _, err := c.MarketUpdateInterval(); err != nil {
			return err
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// CacheFlushInterval parses the scheduled full-flush interval.
func (c *Config) CacheFlushInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Cache.FlushInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.flush_interval %q: %w", c.Cache.FlushInterval, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("cache.flush_interval must be > 0")
	}
	return interval, nil
}

// MarketUpdateInterval parses the price ingestion interval.
func (c *Config) MarketUpdateInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Market.UpdateInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid market.update_interval %q: %w", c.Market.UpdateInterval, err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("market.update_interval must be > 0")
	}
	return interval, nil
}

// Location returns the configured billing timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"tariffs.config_dir":      "./config/tariffs",
		"cache.flush_interval":    "24h",
		"market.enabled":          true,
		"market.base_url":         "https://griddata.elia.be/eliabecontrols.prod/interface/Interconnections/daily/auctionresultsqh",
		"market.update_interval":  "1h",
		"timezone":                "Europe/Brussels",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("WATTBILL_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "WATTBILL_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
