// Package config loads tool configuration from an optional YAML file and the
// environment. Precedence: built-in defaults, then the file, then VERAX_*
// variables; command-line flags override last at the command layer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "verax/pkg/platform/strings"
)

// Duration is a time.Duration that unmarshals from YAML strings like "1100ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Cache selects and configures the checks store backend.
type Cache struct {
	Backend     string `yaml:"backend"`
	RedisAddr   string `yaml:"redis_addr"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Registry configures the package registry authority. Zero fields defer to
// the registry client's defaults.
type Registry struct {
	BaseURL string   `yaml:"base_url"`
	Pacing  Duration `yaml:"pacing"`
}

// Attestations configures the rebuild attestation store authority.
type Attestations struct {
	BaseURL string `yaml:"base_url"`
}

// Audit configures the optional Kafka audit trail. The trail is disabled
// unless brokers are set.
type Audit struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Batch configures the evaluation coordinator.
type Batch struct {
	PerPackageBudget Duration `yaml:"per_package_budget"`
}

// Config is the full tool configuration.
type Config struct {
	DataDir      string       `yaml:"data_dir"`
	Cache        Cache        `yaml:"cache"`
	Registry     Registry     `yaml:"registry"`
	Attestations Attestations `yaml:"attestations"`
	Audit        Audit        `yaml:"audit"`
	Batch        Batch        `yaml:"batch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache: Cache{Backend: "disk"},
	}
}

// DefaultPath returns ~/.verax/config.yaml, or "" when the home directory
// cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".verax", "config.yaml")
}

// Load builds the configuration. With an empty path the default location is
// used and may be absent; a path given explicitly must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	if v := os.Getenv("VERAX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("VERAX_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("VERAX_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("VERAX_POSTGRES_DSN"); v != "" {
		c.Cache.PostgresDSN = v
	}
	if v := os.Getenv("VERAX_REGISTRY_URL"); v != "" {
		c.Registry.BaseURL = v
	}
	if v := os.Getenv("VERAX_REGISTRY_PACING"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid VERAX_REGISTRY_PACING %q: %w", v, err)
		}
		c.Registry.Pacing = Duration(parsed)
	}
	if v := os.Getenv("VERAX_ATTESTATIONS_URL"); v != "" {
		c.Attestations.BaseURL = v
	}
	if v := os.Getenv("VERAX_AUDIT_BROKERS"); v != "" {
		c.Audit.Brokers = splitList(v)
	}
	if v := os.Getenv("VERAX_AUDIT_TOPIC"); v != "" {
		c.Audit.Topic = v
	}
	if v := os.Getenv("VERAX_PER_PACKAGE_BUDGET"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid VERAX_PER_PACKAGE_BUDGET %q: %w", v, err)
		}
		c.Batch.PerPackageBudget = Duration(parsed)
	}
	return nil
}

func splitList(v string) []string {
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}

// Validate checks cross-field requirements after all layers are applied.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case "disk", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache backend redis requires redis_addr")
		}
	case "postgres":
		if c.Cache.PostgresDSN == "" {
			return errors.New("cache backend postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}
