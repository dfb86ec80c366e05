// Package config loads and validates roost.yml plus environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Deduplication policies for requests whose content hash is already known.
const (
	// DedupRepublish always publishes a fresh process event, even for known
	// hashes. A prior run may not have registered a result yet, so the worker
	// pool is signalled regardless.
	DedupRepublish = "republish"

	// DedupCached consults the result cache first and returns a cached result
	// without publishing or waiting when one exists.
	DedupCached = "cached"
)

// Config represents the top-level roost.yml configuration.
type Config struct {
	Instance      string `yaml:"instance"`       // Instance name namespacing Redis keys and channels
	RedisURL      string `yaml:"redis_url"`      // Redis connection URL
	StoreDir      string `yaml:"store_dir"`      // Directory for canonical documents and meta.json
	AnswerTimeout int    `yaml:"answer_timeout"` // Seconds to wait for a result event (default 30)
	DedupPolicy   string `yaml:"dedup_policy"`   // "republish" (default) or "cached"
	WebhookURL    string `yaml:"webhook_url"`    // Optional notification webhook (empty = disabled)
	ListenAddr    string `yaml:"listen_addr"`    // Gateway listen address (default :8080)
}

// Default returns a config populated with defaults, before file and
// environment overrides are applied.
func Default() *Config {
	return &Config{
		Instance:      "default",
		RedisURL:      "redis://localhost:6379",
		StoreDir:      "downloads",
		AnswerTimeout: 30,
		DedupPolicy:   DedupRepublish,
		ListenAddr:    ":8080",
	}
}

// Timeout returns the answer timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AnswerTimeout) * time.Second
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if c.Instance == "" {
		return fmt.Errorf("instance name is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("redis_url is required")
	}

	if c.StoreDir == "" {
		return fmt.Errorf("store_dir is required")
	}

	if c.AnswerTimeout < 1 {
		return fmt.Errorf("answer_timeout must be >= 1 second, got %d", c.AnswerTimeout)
	}

	if c.DedupPolicy != DedupRepublish && c.DedupPolicy != DedupCached {
		return fmt.Errorf("invalid dedup_policy: %s (must be '%s' or '%s')", c.DedupPolicy, DedupRepublish, DedupCached)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}

	return nil
}

// Load reads roost.yml from path, applies environment overrides, and
// validates the result. A missing file is not an error - defaults plus
// environment variables are enough to run.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overlays ROOST_* environment variables onto cfg.
// Environment always wins over file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROOST_INSTANCE_NAME"); v != "" {
		cfg.Instance = v
	}
	if v := os.Getenv("ROOST_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("ROOST_STORE_DIR"); v != "" {
		cfg.StoreDir = v
	}
	if v := os.Getenv("ROOST_ANSWER_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.AnswerTimeout = secs
		}
	}
	if v := os.Getenv("ROOST_DEDUP_POLICY"); v != "" {
		cfg.DedupPolicy = v
	}
	if v := os.Getenv("ROOST_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("ROOST_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
}
