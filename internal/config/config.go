package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source struct {
		Kind          string        `yaml:"kind"`
		PayloadDir    string        `yaml:"payload_dir"`
		SQLitePath    string        `yaml:"sqlite_path"`
		EventCacheTTL time.Duration `yaml:"event_cache_ttl"`
	} `yaml:"source"`
	Entries  []int `yaml:"entries"`
	Schedule struct {
		WatchCron   string `yaml:"watch_cron"`
		Concurrency int    `yaml:"concurrency"`
	} `yaml:"schedule"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

const (
	SourcePayload = "payload"
	SourceSQLite  = "sqlite"
)

// Load reads config from a YAML file, then a .env file if present, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Variables already set in the process win over .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("FPL_TEAM_ID"); v != "" {
		entries, err := parseEntries(v)
		if err != nil {
			return nil, fmt.Errorf("FPL_TEAM_ID: %w", err)
		}
		cfg.Entries = entries
	}
	if v := os.Getenv("FPL_SOURCE_KIND"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("FPL_PAYLOAD_DIR"); v != "" {
		cfg.Source.PayloadDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Source.SQLitePath = v
	}
	if v := os.Getenv("CRON_WATCH"); v != "" {
		cfg.Schedule.WatchCron = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourcePayload
	}
	if cfg.Source.PayloadDir == "" {
		cfg.Source.PayloadDir = "data/fpl"
	}
	if cfg.Source.SQLitePath == "" {
		cfg.Source.SQLitePath = "data/fpl.db"
	}
	if cfg.Source.EventCacheTTL == 0 {
		cfg.Source.EventCacheTTL = 300 * time.Second
	}
	if cfg.Schedule.WatchCron == "" {
		cfg.Schedule.WatchCron = "0 */30 * * * *"
	}
	if cfg.Schedule.Concurrency == 0 {
		cfg.Schedule.Concurrency = 4
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9108"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourcePayload, SourceSQLite:
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourcePayload, SourceSQLite, c.Source.Kind)
	}
	if c.Source.EventCacheTTL < 0 {
		return fmt.Errorf("source.event_cache_ttl must not be negative")
	}
	for _, id := range c.Entries {
		if id <= 0 {
			return fmt.Errorf("entries: invalid entry id %d", id)
		}
	}
	if c.Schedule.Concurrency < 1 {
		return fmt.Errorf("schedule.concurrency must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// RequireEntries is the extra check for commands that evaluate the configured managers.
func (c *Config) RequireEntries() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("entries is required (or set FPL_TEAM_ID)")
	}
	return nil
}

func parseEntries(v string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}
